package bootloader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/marcinbor85/gohex"
)

// Image is a firmware image flattened to the 16-bit word sequence the
// loader streams to a device, with a cursor tracking how far an upload
// has consumed it.
type Image struct {
	words  []uint16
	top    uint32
	cursor int
}

// Words returns the number of 16-bit words in the image.
func (img *Image) Words() int { return len(img.words) }

// Top returns the highest record address a data word was seen at.
func (img *Image) Top() uint32 { return img.top }

// Cursor returns the word index the next upload frame would consume.
func (img *Image) Cursor() int { return img.cursor }

// Reset rewinds the cursor to the start of the image.
func (img *Image) Reset() { img.cursor = 0 }

func (img *Image) exhausted() bool { return img.cursor >= len(img.words) }

func (img *Image) peek() (uint16, bool) {
	if img.exhausted() {
		return 0, false
	}
	return img.words[img.cursor], true
}

func (img *Image) advance() { img.cursor++ }

// rewind steps the cursor back n words, stopping at the start.
func (img *Image) rewind(n int) {
	img.cursor -= n
	if img.cursor < 0 {
		img.cursor = 0
	}
}

// ParseHex reads the line-oriented hex-record format the legacy tools emit:
// ':', a 2-digit byte count, a 4-digit address, a 2-digit record type,
// then byteCount/2 words of 4 hex digits each. Data records (type 0)
// append words; an end-of-file record (type 1) stops parsing immediately;
// blank, malformed, and unknown-type lines are skipped. There are no
// checksums in this format. Only a read error fails the parse.
func ParseHex(r io.Reader) (*Image, error) {
	img := &Image{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if len(line) < 9 || line[0] != ':' {
			continue
		}
		byteCount, err := strconv.ParseUint(line[1:3], 16, 8)
		if err != nil {
			continue
		}
		address, err := strconv.ParseUint(line[3:7], 16, 16)
		if err != nil {
			continue
		}
		recordType, err := strconv.ParseUint(line[7:9], 16, 8)
		if err != nil {
			continue
		}
		switch recordType {
		case 0:
			count := int(byteCount) / 2
			if len(line) < 9+count*4 {
				continue
			}
			words := make([]uint16, 0, count)
			pos := 9
			for i := 0; i < count; i++ {
				w, err := strconv.ParseUint(line[pos:pos+4], 16, 16)
				if err != nil {
					break
				}
				words = append(words, uint16(w))
				pos += 4
			}
			if len(words) != count { // garbage mid-line drops the whole line
				continue
			}
			for i, w := range words {
				img.words = append(img.words, w)
				if a := uint32(address) + uint32(i)*2; a > img.top {
					img.top = a
				}
			}
		case 1:
			return img, nil
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return img, nil
}

// ParseIntelHex reads a standard Intel HEX image, checksums enforced, and
// flattens its data segments to words (big-endian within each word, the
// text order of the legacy format). Segments must hold whole words.
func ParseIntelHex(r io.Reader) (*Image, error) {
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(r); err != nil {
		return nil, &ParseError{Msg: err.Error()}
	}
	img := &Image{}
	for _, seg := range mem.GetDataSegments() {
		if len(seg.Data)%2 != 0 {
			return nil, &ParseError{Msg: fmt.Sprintf(
				"segment at 0x%04X holds %d bytes, not whole words", seg.Address, len(seg.Data))}
		}
		for i := 0; i < len(seg.Data); i += 2 {
			img.words = append(img.words, uint16(seg.Data[i])<<8|uint16(seg.Data[i+1]))
			if a := seg.Address + uint32(i); a > img.top {
				img.top = a
			}
		}
	}
	return img, nil
}

// LoadImageFile reads a firmware image from disk: strict Intel HEX first,
// falling back to the checksum-less legacy format the older tools write.
func LoadImageFile(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, err := ParseIntelHex(f)
	if err == nil {
		return img, nil
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind image: %w", err)
	}
	return ParseHex(f)
}
