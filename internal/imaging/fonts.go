package imaging

import (
	"bytes"
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"video-maker/internal/faults"
)

// FontSet holds the bold and regular typefaces and caches faces per size.
type FontSet struct {
	bold    *opentype.Font
	regular *opentype.Font

	mu    sync.Mutex
	faces map[faceKey]font.Face
}

type faceKey struct {
	bold bool
	size int
}

// LoadFontSet reads TrueType/OpenType fonts or collections (.ttc, first
// face). An empty path selects the bundled Go font of that weight.
func LoadFontSet(boldPath, regularPath string) (*FontSet, error) {
	bold, err := loadFont(boldPath, gobold.TTF)
	if err != nil {
		return nil, err
	}
	regular, err := loadFont(regularPath, goregular.TTF)
	if err != nil {
		return nil, err
	}
	return &FontSet{bold: bold, regular: regular, faces: make(map[faceKey]font.Face)}, nil
}

func loadFont(path string, fallback []byte) (*opentype.Font, error) {
	data := fallback
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, faults.Wrap(faults.ErrMissingFile, "load font", path, err)
		}
		data = raw
	}

	if bytes.HasPrefix(data, []byte("ttcf")) {
		coll, err := opentype.ParseCollection(data)
		if err != nil {
			return nil, faults.Wrap(faults.ErrUnsupportedFormat, "parse font collection", path, err)
		}
		f, err := coll.Font(0)
		if err != nil {
			return nil, faults.Wrap(faults.ErrUnsupportedFormat, "parse font collection", path, err)
		}
		return f, nil
	}

	f, err := opentype.Parse(data)
	if err != nil {
		return nil, faults.Wrap(faults.ErrUnsupportedFormat, "parse font", path, err)
	}
	return f, nil
}

// Face returns a face of size pixels (72 DPI, so points equal pixels).
func (s *FontSet) Face(bold bool, size int) (font.Face, error) {
	key := faceKey{bold: bold, size: size}

	s.mu.Lock()
	defer s.mu.Unlock()
	if face, ok := s.faces[key]; ok {
		return face, nil
	}

	f := s.regular
	if bold {
		f = s.bold
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, faults.Wrapf(faults.ErrInvalidConfig, "create font face", "", "size %d: %v", size, err)
	}
	s.faces[key] = face
	return face, nil
}

// Close releases cached faces.
func (s *FontSet) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, face := range s.faces {
		_ = face.Close()
		delete(s.faces, k)
	}
	return nil
}
