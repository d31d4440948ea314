// Package shortcut reads the target of Windows shell link (.lnk) files so
// shortcuts dropped into the input directory can stand in for workbooks.
package shortcut

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf16"
)

const (
	headerSize = 0x4C

	flagHasIDList       = 1 << 0
	flagHasLinkInfo     = 1 << 1
	flagHasName         = 1 << 2
	flagHasRelativePath = 1 << 3
	flagIsUnicode       = 1 << 7

	infoHasLocalPath   = 1 << 0
	infoHasNetworkPath = 1 << 1
)

var linkCLSID = []byte{
	0x01, 0x14, 0x02, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xC0, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x46,
}

var ErrNotShortcut = errors.New("not a shell link")

// Link holds the target locations recorded in a shell link. Windows stores
// either a local path, a network share path or only a path relative to the
// link itself.
type Link struct {
	LocalPath    string
	NetworkPath  string
	RelativePath string
}

// Target picks the most specific recorded target.
func (l Link) Target() string {
	switch {
	case l.LocalPath != "":
		return l.LocalPath
	case l.NetworkPath != "":
		return l.NetworkPath
	default:
		return l.RelativePath
	}
}

func IsShortcut(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".lnk")
}

// Resolve reads the shortcut at path and returns its target. A relative
// target is resolved against the shortcut's directory.
func Resolve(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	link, err := Parse(data)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	if link.LocalPath == "" && link.NetworkPath == "" && link.RelativePath != "" {
		rel := filepath.FromSlash(strings.ReplaceAll(link.RelativePath, `\`, "/"))
		return filepath.Join(filepath.Dir(path), rel), nil
	}
	if target := link.Target(); target != "" {
		return target, nil
	}
	return "", fmt.Errorf("%s: shortcut has no target path", path)
}

// Parse decodes the header, LinkInfo and relative path string of a shell link.
func Parse(data []byte) (Link, error) {
	if len(data) < headerSize ||
		binary.LittleEndian.Uint32(data) != headerSize ||
		!bytes.Equal(data[4:20], linkCLSID) {
		return Link{}, ErrNotShortcut
	}
	flags := binary.LittleEndian.Uint32(data[0x14:])
	r := &reader{data: data, off: headerSize}

	if flags&flagHasIDList != 0 {
		size, err := r.uint16()
		if err != nil {
			return Link{}, err
		}
		if err := r.skip(int(size)); err != nil {
			return Link{}, err
		}
	}

	var link Link
	if flags&flagHasLinkInfo != 0 {
		size, err := r.peekUint32()
		if err != nil {
			return Link{}, err
		}
		block, err := r.take(int(size))
		if err != nil {
			return Link{}, err
		}
		if err := parseLinkInfo(block, &link); err != nil {
			return Link{}, err
		}
	}

	unicode := flags&flagIsUnicode != 0
	if flags&flagHasName != 0 {
		if _, err := r.countedString(unicode); err != nil {
			return Link{}, err
		}
	}
	if flags&flagHasRelativePath != 0 {
		rel, err := r.countedString(unicode)
		if err != nil {
			return Link{}, err
		}
		link.RelativePath = rel
	}
	return link, nil
}

func parseLinkInfo(b []byte, link *Link) error {
	if len(b) < 0x1C {
		return fmt.Errorf("link info too short")
	}
	headerLen := binary.LittleEndian.Uint32(b[4:])
	flags := binary.LittleEndian.Uint32(b[8:])
	localOff := binary.LittleEndian.Uint32(b[0x10:])
	networkOff := binary.LittleEndian.Uint32(b[0x14:])
	suffixOff := binary.LittleEndian.Uint32(b[0x18:])

	var suffix string
	if headerLen >= 0x24 && len(b) >= 0x24 {
		localW := binary.LittleEndian.Uint32(b[0x1C:])
		suffixW := binary.LittleEndian.Uint32(b[0x20:])
		if flags&infoHasLocalPath != 0 && localW != 0 {
			link.LocalPath = utf16z(b, localW)
		}
		if suffixW != 0 {
			suffix = utf16z(b, suffixW)
		}
	}
	if suffix == "" {
		suffix = cstring(b, suffixOff)
	}

	if flags&infoHasLocalPath != 0 {
		if link.LocalPath == "" {
			link.LocalPath = cstring(b, localOff)
		}
		link.LocalPath = joinSuffix(link.LocalPath, suffix)
	}
	if flags&infoHasNetworkPath != 0 && int(networkOff)+12 <= len(b) {
		share := b[networkOff:]
		nameOff := binary.LittleEndian.Uint32(share[8:])
		if name := cstring(share, nameOff); name != "" {
			link.NetworkPath = joinSuffix(name, suffix)
		}
	}
	return nil
}

func joinSuffix(base, suffix string) string {
	if suffix == "" {
		return base
	}
	if strings.HasSuffix(base, `\`) {
		return base + suffix
	}
	return base + `\` + suffix
}

func cstring(b []byte, off uint32) string {
	if off == 0 || int(off) >= len(b) {
		return ""
	}
	s := b[off:]
	if i := bytes.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return string(s)
}

func utf16z(b []byte, off uint32) string {
	var units []uint16
	for i := int(off); i+1 < len(b); i += 2 {
		u := binary.LittleEndian.Uint16(b[i:])
		if u == 0 {
			break
		}
		units = append(units, u)
	}
	return string(utf16.Decode(units))
}

type reader struct {
	data []byte
	off  int
}

var errTruncated = errors.New("shell link is truncated")

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 || r.off+n > len(r.data) {
		return nil, errTruncated
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) skip(n int) error {
	_, err := r.take(n)
	return err
}

func (r *reader) uint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *reader) peekUint32() (uint32, error) {
	if r.off+4 > len(r.data) {
		return 0, errTruncated
	}
	return binary.LittleEndian.Uint32(r.data[r.off:]), nil
}

// countedString reads a StringData entry: a character count followed by
// UTF-16LE or code page characters.
func (r *reader) countedString(unicode bool) (string, error) {
	count, err := r.uint16()
	if err != nil {
		return "", err
	}
	if !unicode {
		b, err := r.take(int(count))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	b, err := r.take(int(count) * 2)
	if err != nil {
		return "", err
	}
	units := make([]uint16, count)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(b[2*i:])
	}
	return string(utf16.Decode(units)), nil
}
