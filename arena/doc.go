// Package arena implements the scratch allocator that backs every native
// descriptor built by fbnative.
//
// An Arena hands out 8-byte aligned blocks from a list of chunks. Blocks are
// never freed individually: Reset rewinds every chunk to empty while keeping
// the chunks for reuse, and Release drops them. Chunk memory is heap memory
// owned by the arena, so addresses handed to native code stay valid until the
// next Reset or Release.
//
//	a := arena.New(0)
//	defer a.Release()
//
//	ref, err := a.Alloc(24)
//	buf, _ := a.Bytes(ref)
//	addr, _ := a.Addr(ref)
//
// Every Ref records the arena generation it came from. Reset and Release bump
// the generation, so a Ref kept across a Reset is rejected instead of aliasing
// memory that has since been handed out again.
//
// An Arena is owned by one goroutine at a time and is not synchronized.
package arena
