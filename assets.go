package grafx

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/gogpu/grafx/internal/cache"
	"github.com/gogpu/grafx/internal/image"
)

// PixelSource decodes encoded image bytes into straight-alpha RGBA8 pixels,
// width*height*4 bytes, row-major.
type PixelSource interface {
	Decode(data []byte) (width, height uint32, pixels []byte, err error)
}

// ImageSource is the default PixelSource. It understands PNG, JPEG, GIF,
// BMP, WebP and TIFF.
type ImageSource struct {
	// MaxDimension downscales larger images. Zero keeps the source size.
	MaxDimension int
}

// Decode implements PixelSource.
func (s ImageSource) Decode(data []byte) (width, height uint32, pixels []byte, err error) {
	p, err := image.Decoder{MaxDimension: s.MaxDimension}.Decode(data)
	if err != nil {
		return 0, 0, nil, err
	}
	return p.Width, p.Height, p.Data, nil
}

// Asset is an encoded texture. Data is used when set, otherwise Path is
// read from the manifest's file system.
type Asset struct {
	Key  string `json:"key"`
	Path string `json:"path,omitempty"`
	Data []byte `json:"-"`
}

// SpriteDef declares a full-screen sprite over a texture key.
type SpriteDef struct {
	Key     string `json:"key"`
	Texture string `json:"texture"`
	Hidden  bool   `json:"hidden,omitempty"`
}

// Manifest lists the textures and sprites to create at startup.
type Manifest struct {
	Textures []Asset     `json:"textures"`
	Sprites  []SpriteDef `json:"sprites"`
}

// ReadManifest parses a JSON manifest from fsys.
//
//	{
//	  "textures": [{"key": "sky", "path": "sky.png"}],
//	  "sprites":  [{"key": "background", "texture": "sky"}]
//	}
func ReadManifest(fsys fs.FS, name string) (*Manifest, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("grafx: read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("grafx: parse manifest %s: %w", name, err)
	}
	return &m, nil
}

// DecodedTexture is an asset decoded to pixels.
type DecodedTexture struct {
	Key    string
	Width  uint32
	Height uint32
	Pixels []byte
}

// DecodeAssets decodes every asset with src. An asset that cannot be read
// or decoded is left out of the result; the returned error joins one
// ErrDecode-wrapping error per failed asset. fsys may be nil when every
// asset carries its Data.
func DecodeAssets(src PixelSource, fsys fs.FS, assets []Asset) ([]DecodedTexture, error) {
	return decodeAssets(src, fsys, assets, nil)
}

// decodeCache holds decoded pixels keyed by the SHA-256 of the encoded
// bytes, so the same image is decoded once however many keys or reloads
// refer to it.
type decodeCache = cache.Cache[[sha256.Size]byte, DecodedTexture]

func newDecodeCache(budget int64) *decodeCache {
	return cache.New[[sha256.Size]byte](budget, func(t DecodedTexture) int64 {
		return int64(len(t.Pixels))
	})
}

func decodeAssets(src PixelSource, fsys fs.FS, assets []Asset, dc *decodeCache) ([]DecodedTexture, error) {
	var (
		out  = make([]DecodedTexture, 0, len(assets))
		errs []error
	)
	for _, a := range assets {
		tex, err := decodeAsset(src, fsys, a, dc)
		if err != nil {
			Logger().Warn("grafx: asset skipped", "key", a.Key, "err", err)
			errs = append(errs, err)
			continue
		}
		out = append(out, tex)
	}
	return out, errors.Join(errs...)
}

func decodeAsset(src PixelSource, fsys fs.FS, a Asset, dc *decodeCache) (DecodedTexture, error) {
	data := a.Data
	if data == nil {
		if fsys == nil || a.Path == "" {
			return DecodedTexture{}, fmt.Errorf("%w: asset %q has no data", ErrDecode, a.Key)
		}
		var err error
		data, err = fs.ReadFile(fsys, a.Path)
		if err != nil {
			return DecodedTexture{}, fmt.Errorf("%w: asset %q: %w", ErrDecode, a.Key, err)
		}
	}

	var sum [sha256.Size]byte
	if dc != nil {
		sum = sha256.Sum256(data)
		if tex, ok := dc.Get(sum); ok {
			tex.Key = a.Key
			return tex, nil
		}
	}

	w, h, pix, err := src.Decode(data)
	if err != nil {
		return DecodedTexture{}, fmt.Errorf("%w: asset %q: %w", ErrDecode, a.Key, err)
	}
	if w == 0 || h == 0 || uint64(len(pix)) != uint64(w)*uint64(h)*4 {
		return DecodedTexture{}, fmt.Errorf("%w: asset %q: %w: %d bytes for %dx%d",
			ErrDecode, a.Key, ErrInvalidImageData, len(pix), w, h)
	}
	tex := DecodedTexture{Key: a.Key, Width: w, Height: h, Pixels: pix}
	if dc != nil {
		dc.Put(sum, tex)
	}
	return tex, nil
}

// Load decodes and uploads the manifest's textures, then registers its
// sprites. Failed assets and failed uploads are logged and skipped, and so
// are the sprites that refer to them; the rest of the manifest is still
// loaded. The returned error joins every absorbed failure and is nil when
// everything loaded.
//
// A nil src uses ImageSource capped at the configured MaxTextureSize; its
// results are kept in a cache bounded by AssetCacheSize, so loading the
// same image again skips decoding.
func (r *Renderer) Load(src PixelSource, fsys fs.FS, m *Manifest) error {
	if r.closed {
		return ErrClosed
	}
	if m == nil {
		return errors.New("grafx: load: nil manifest")
	}
	var dc *decodeCache
	if src == nil {
		src = ImageSource{MaxDimension: r.cfg.MaxTextureSize}
		dc = r.decoded
	}

	decoded, err := decodeAssets(src, fsys, m.Textures, dc)
	errs := []error{err}
	uploaded := make(map[string]bool, len(decoded))
	for _, tex := range decoded {
		if err := r.AddTexture(tex.Key, tex.Pixels, tex.Width, tex.Height); err != nil {
			Logger().Warn("grafx: texture upload failed", "key", tex.Key, "err", err)
			errs = append(errs, err)
			continue
		}
		uploaded[tex.Key] = true
	}
	failed := make(map[string]bool)
	for _, a := range m.Textures {
		if !uploaded[a.Key] {
			failed[a.Key] = true
		}
	}

	for _, def := range m.Sprites {
		if failed[def.Texture] {
			Logger().Warn("grafx: sprite skipped, texture failed to load", "key", def.Key, "texture", def.Texture)
			errs = append(errs, &MissingTextureError{Sprite: def.Key, Texture: def.Texture})
			continue
		}
		if err := r.AddSprite(def.Key, def.Texture); err != nil {
			Logger().Warn("grafx: sprite creation failed", "key", def.Key, "err", err)
			errs = append(errs, err)
			continue
		}
		if def.Hidden {
			_ = r.SetVisible(def.Key, false)
		}
	}

	Logger().Info("grafx: assets loaded",
		"textures", len(r.textures),
		"sprites", len(r.sprites),
		"decode_cache_hits", r.decoded.Stats().Hits,
	)
	return errors.Join(errs...)
}
