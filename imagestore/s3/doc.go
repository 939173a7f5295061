// Package s3 implements imagestore.Store on Amazon S3.
//
// Reads use HTTP Range GETs so that large images can be sampled without
// downloading them whole; writes go through the SDK upload manager for
// parallel multipart uploads. An optional rate limiter throttles GETs
// for shared buckets.
//
// Catalog adds versioned publishing on DynamoDB: a conditional-write
// commit log that atomically advances the CURRENT pointer of an image
// set, so concurrent publishers cannot clobber each other.
package s3
