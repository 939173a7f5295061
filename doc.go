// Package membuf provides typed views, safe casting and signature search
// over raw byte regions.
//
// Membuf is built for binary-format work — executable headers, ROM and
// firmware images, wire captures — where the byte layout is fixed but the
// memory is untrusted or externally owned. It exposes one operation
// surface over two backing stores:
//
//   - View: a non-owning pointer+length window over memory the caller
//     controls (a memory-mapped image, a foreign allocation).
//   - Owned: a growable, self-owned byte store.
//
// # Quick Start
//
// Cast a header out of an image:
//
//	type Header struct {
//	    Magic   uint32
//	    Version uint32
//	}
//
//	buf := membuf.OwnedFrom(image)
//	hdr, err := membuf.Ref[Header](buf, 0)        // aligned, zero-copy
//	hdr2, err := membuf.Unaligned[Header](buf, 3) // copies, any alignment
//
// Scan for a byte signature with wildcards:
//
//	pat, _ := membuf.ParsePattern("90 ?? 12")
//	for off := range buf.Search(pat) {
//	    fmt.Printf("match at %#x\n", off)
//	}
//
// # Castability
//
// Typed operations only accept castable types: types for which every bit
// pattern of the correct size is a valid value (fixed-size integers,
// floats, arrays and padding-free structs of those). Pointers, slices,
// maps, strings, bools and interfaces are rejected before any bytes are
// touched. The check runs once per type and is cached; the castgen tool
// (cmd/castgen) derives and asserts the contract for user aggregates at
// build time.
//
// # Safety Model
//
// All checked accessors validate bounds and alignment and return typed
// errors. ForceRef is the single named escape hatch that skips the
// alignment check; use it only where the target platform tolerates
// misaligned loads. A View performs no liveness tracking of the memory
// it wraps — keeping the source alive is the caller's obligation.
package membuf
