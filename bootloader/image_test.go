package bootloader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"
)

func TestParseHex_Records(t *testing.T) {
	in := ":08123400AABBCCDD11223344\n:00000001\n"
	img, err := ParseHex(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseHex failed: %v", err)
	}
	want := []uint16{0xAABB, 0xCCDD, 0x1122, 0x3344}
	if img.Words() != len(want) {
		t.Fatalf("Expected %d words, got %d", len(want), img.Words())
	}
	for i, w := range want {
		if img.words[i] != w {
			t.Errorf("Word %d: expected %04X, got %04X", i, w, img.words[i])
		}
	}
	// Last word starts at 0x1234 + 3*2.
	if img.Top() != 0x123A {
		t.Errorf("Expected top address 0x123A, got 0x%04X", img.Top())
	}
}

func TestParseHex_StopsAtEndRecord(t *testing.T) {
	in := ":02100000AAAA\n:00000001\n:02200000BBBB\n"
	img, err := ParseHex(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseHex failed: %v", err)
	}
	if img.Words() != 1 {
		t.Fatalf("Expected parsing to stop at the end record, got %d words", img.Words())
	}
	if img.words[0] != 0xAAAA {
		t.Errorf("Expected word AAAA, got %04X", img.words[0])
	}
}

func TestParseHex_SkipsJunk(t *testing.T) {
	in := strings.Join([]string{
		"",                        // blank
		"# comment",               // no colon
		":XX100000AAAA",           // bad byte count
		":02ZZZZ00AAAA",           // bad address
		":021000QQAAAA",           // bad record type
		":04100000AAAA",           // declares 2 words, carries 1
		":02100000GGGG",           // bad data word
		":02300002AAAA",           // unknown record type
		":02100000CAFE remainder", // trailing text beyond the declared data is fine
		":00000001",
	}, "\n")
	img, err := ParseHex(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseHex failed: %v", err)
	}
	if img.Words() != 1 {
		t.Fatalf("Expected 1 word to survive, got %d", img.Words())
	}
	if img.words[0] != 0xCAFE {
		t.Errorf("Expected word CAFE, got %04X", img.words[0])
	}
	if img.Top() != 0x1000 {
		t.Errorf("Expected top address 0x1000, got 0x%04X", img.Top())
	}
}

func TestParseHex_OddByteCountRoundsDown(t *testing.T) {
	// Three bytes make one whole word; the remainder is not read.
	img, err := ParseHex(strings.NewReader(":03100000ABCD\n:00000001\n"))
	if err != nil {
		t.Fatalf("ParseHex failed: %v", err)
	}
	if img.Words() != 1 || img.words[0] != 0xABCD {
		t.Fatalf("Expected single word ABCD, got %d words %v", img.Words(), img.words)
	}
}

func TestParseHex_NoEndRecord(t *testing.T) {
	img, err := ParseHex(strings.NewReader(":02100000AAAA\n"))
	if err != nil {
		t.Fatalf("ParseHex failed: %v", err)
	}
	if img.Words() != 1 {
		t.Fatalf("Expected 1 word, got %d", img.Words())
	}
}

func TestParseHex_ReadError(t *testing.T) {
	fail := errors.New("disk on fire")
	if _, err := ParseHex(iotest.ErrReader(fail)); !errors.Is(err, fail) {
		t.Fatalf("Expected the read error to surface, got %v", err)
	}
}

func TestParseIntelHex(t *testing.T) {
	in := ":0400000012345678E8\n:00000001FF\n"
	img, err := ParseIntelHex(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseIntelHex failed: %v", err)
	}
	if img.Words() != 2 || img.words[0] != 0x1234 || img.words[1] != 0x5678 {
		t.Fatalf("Expected words [1234 5678], got %v", img.words)
	}
	if img.Top() != 0x0002 {
		t.Errorf("Expected top address 0x0002, got 0x%04X", img.Top())
	}
}

func TestParseIntelHex_BadChecksum(t *testing.T) {
	var perr *ParseError
	_, err := ParseIntelHex(strings.NewReader(":0400000012345678FF\n:00000001FF\n"))
	if !errors.As(err, &perr) {
		t.Fatalf("Expected ParseError for a bad checksum, got %v", err)
	}
}

func TestParseIntelHex_OddSegment(t *testing.T) {
	var perr *ParseError
	_, err := ParseIntelHex(strings.NewReader(":0300000012345661\n:00000001FF\n"))
	if !errors.As(err, &perr) {
		t.Fatalf("Expected ParseError for a half-word segment, got %v", err)
	}
}

func TestLoadImageFile_FallsBackToLegacyFormat(t *testing.T) {
	// No end record and a bogus checksum: the strict parser rejects it, the
	// legacy parser reads the declared data and ignores the rest.
	path := filepath.Join(t.TempDir(), "app.hex")
	if err := os.WriteFile(path, []byte(":040000001234567800\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	img, err := LoadImageFile(path)
	if err != nil {
		t.Fatalf("LoadImageFile failed: %v", err)
	}
	if img.Words() != 2 || img.words[0] != 0x1234 || img.words[1] != 0x5678 {
		t.Fatalf("Expected words [1234 5678], got %v", img.words)
	}
}

func TestLoadImageFile_StrictFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.hex")
	if err := os.WriteFile(path, []byte(":0400000012345678E8\n:00000001FF\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	img, err := LoadImageFile(path)
	if err != nil {
		t.Fatalf("LoadImageFile failed: %v", err)
	}
	if img.Words() != 2 {
		t.Fatalf("Expected 2 words, got %d", img.Words())
	}
}

func TestLoadImageFile_Missing(t *testing.T) {
	if _, err := LoadImageFile(filepath.Join(t.TempDir(), "missing.hex")); err == nil {
		t.Fatal("Expected an error for a missing file")
	}
}

func TestImage_Cursor(t *testing.T) {
	img := &Image{words: []uint16{1, 2, 3}}
	img.advance()
	img.advance()
	if img.Cursor() != 2 {
		t.Fatalf("Expected cursor 2, got %d", img.Cursor())
	}
	img.rewind(8)
	if img.Cursor() != 0 {
		t.Errorf("Expected rewind to clamp at 0, got %d", img.Cursor())
	}
	img.advance()
	img.Reset()
	if img.Cursor() != 0 {
		t.Errorf("Expected Reset to zero the cursor, got %d", img.Cursor())
	}
}
