package pngenc

import (
	"bytes"
	"hash/crc32"
	"testing"
)

func TestWriteChunkCRC(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("hello")
	if err := writeChunk(&buf, "tEXt", payload, nil); err != nil {
		t.Fatalf("writeChunk: %v", err)
	}

	got := buf.Bytes()
	length := uint32(got[0])<<24 | uint32(got[1])<<16 | uint32(got[2])<<8 | uint32(got[3])
	if int(length) != len(payload) {
		t.Fatalf("length = %d, want %d", length, len(payload))
	}
	if string(got[4:8]) != "tEXt" {
		t.Fatalf("tag = %q, want tEXt", got[4:8])
	}

	crc := crc32.NewIEEE()
	crc.Write(got[4:8])
	crc.Write(payload)
	want := crc.Sum32()
	gotCRC := uint32(got[len(got)-4])<<24 | uint32(got[len(got)-3])<<16 | uint32(got[len(got)-2])<<8 | uint32(got[len(got)-1])
	if gotCRC != want {
		t.Fatalf("crc = %08x, want %08x", gotCRC, want)
	}
}

func TestWriteChunkSequencePrefix(t *testing.T) {
	var buf bytes.Buffer
	seq := uint32(7)
	payload := []byte{1, 2, 3}
	if err := writeChunk(&buf, "fdAT", payload, &seq); err != nil {
		t.Fatalf("writeChunk: %v", err)
	}

	got := buf.Bytes()
	length := uint32(got[0])<<24 | uint32(got[1])<<16 | uint32(got[2])<<8 | uint32(got[3])
	if int(length) != 4+len(payload) {
		t.Fatalf("length = %d, want %d", length, 4+len(payload))
	}
	seqBytes := got[8:12]
	gotSeq := uint32(seqBytes[0])<<24 | uint32(seqBytes[1])<<16 | uint32(seqBytes[2])<<8 | uint32(seqBytes[3])
	if gotSeq != 7 {
		t.Fatalf("sequence number = %d, want 7", gotSeq)
	}
}

func TestWriteChunkRejectsBadTag(t *testing.T) {
	var buf bytes.Buffer
	if err := writeChunk(&buf, "bad", nil, nil); err == nil {
		t.Fatal("expected an error for a 3-byte tag")
	}
}
