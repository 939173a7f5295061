// Package imagestore provides storage backends for binary memory images
// (ROM dumps, firmware blobs, core files) consumed by the membuf core.
//
// Store is the interface for fetching and publishing images.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - Local: local filesystem with mmap-backed zero-copy opens
//   - Memory: in-memory store for testing
//   - CachingStore: wraps any Store with whole-image caching and
//     singleflight deduplication of concurrent opens
//   - s3.Store: Amazon S3 with range reads and managed uploads
//   - minio.Store: MinIO and other S3-compatible endpoints
//
// # Compression
//
// Put can compress images with zstd or lz4. Open detects the codec from
// the leading frame magic and decompresses transparently, so callers
// always see the raw image bytes.
//
// # Bridging to membuf
//
// AsBuffer converts an opened Image to a membuf.Buffer: zero-copy when
// the image supports memory mapping, a private copy otherwise.
package imagestore
