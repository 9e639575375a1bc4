package assets

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/weather-bot/meow/internal/glyph"
	"github.com/weather-bot/meow/internal/logger"
)

// FontDirs are searched for system CJK fonts. A leading "~" is the home
// directory.
var FontDirs = []string{
	"/usr/share/fonts",
	"/usr/local/share/fonts",
	"/System/Library/Fonts",
	"/Library/Fonts",
	"~/.fonts",
	"~/.local/share/fonts",
}

var mediumFonts = []string{
	"NotoSansCJKtc-Medium.otf",
	"NotoSansCJKtc-Medium.ttf",
	"NotoSansCJK-Medium.ttc",
	"NotoSansCJKsc-Medium.otf",
	"SourceHanSansTC-Medium.otf",
	"wqy-microhei.ttc",
	"wqy-zenhei.ttc",
	"NotoSansCJK-Regular.ttc",
	"msyh.ttc",
}

var lightFonts = []string{
	"NotoSansCJKtc-Light.otf",
	"NotoSansCJK-Light.ttc",
	"NotoSansCJK-DemiLight.ttc",
	"SourceHanSansTC-Light.otf",
	"NotoSansCJK-Regular.ttc",
	"wqy-microhei.ttc",
}

var fontExts = []string{".ttf", ".ttc", ".otf", ".woff2"}

// fontCache keeps parsed fonts by path.
type fontCache struct {
	mu    sync.RWMutex
	fonts map[string]*glyph.Font
}

var cache = &fontCache{fonts: make(map[string]*glyph.Font)}

func (c *fontCache) get(path string) (*glyph.Font, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.fonts[path]
	return f, ok
}

func (c *fontCache) put(path string, f *glyph.Font) {
	c.mu.Lock()
	c.fonts[path] = f
	c.mu.Unlock()
}

// LoadFontFile parses a TTF, OTF, TTC or WOFF2 file.
func LoadFontFile(path string) (*glyph.Font, error) {
	if f, ok := cache.get(path); ok {
		return f, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	f, err := glyph.ParseFont(filepath.Base(path), data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cache.put(path, f)
	return f, nil
}

func expandHome(dir string) string {
	if !strings.HasPrefix(dir, "~") {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, strings.TrimPrefix(dir, "~"))
}

func isFontFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range fontExts {
		if ext == e {
			return true
		}
	}
	return false
}

// findFontByName returns the first parsable font under dirs whose file
// name contains one of names, trying names in order.
func findFontByName(dirs []string, names []string) string {
	for _, name := range names {
		for _, dir := range dirs {
			root := expandHome(dir)
			if root == "" {
				continue
			}
			if info, err := os.Stat(root); err != nil || !info.IsDir() {
				continue
			}

			matches, err := doublestar.Glob(os.DirFS(root), "**/*"+name+"*", doublestar.WithFilesOnly())
			if err != nil {
				continue
			}
			for _, m := range matches {
				if !isFontFile(m) {
					continue
				}
				path := filepath.Join(root, filepath.FromSlash(m))
				if _, err := LoadFontFile(path); err == nil {
					return path
				}
			}
		}
	}
	return ""
}

func findSystemFont(light bool) string {
	if light {
		return findFontByName(FontDirs, lightFonts)
	}
	return findFontByName(FontDirs, mediumFonts)
}

// loadFont resolves a font from an explicit path, a system font or the
// embedded Go fonts, in that order.
func loadFont(path string, light bool) (*glyph.Font, error) {
	weight := "medium"
	if light {
		weight = "light"
	}

	if path != "" {
		f, err := LoadFontFile(path)
		if err != nil {
			return nil, err
		}
		logger.InfoModule("font", "Using %s font: %s", weight, filepath.Base(path))
		return f, nil
	}

	if found := findSystemFont(light); found != "" {
		logger.InfoModule("font", "Using %s font: %s", weight, filepath.Base(found))
		return LoadFontFile(found)
	}

	logger.WarnModule("font", "No CJK %s font found, using embedded Go font", weight)
	if light {
		return glyph.ParseFont("goregular", goregular.TTF)
	}
	return glyph.ParseFont("gomedium", gomedium.TTF)
}

// ListFonts returns every font file found under FontDirs.
func ListFonts() []string {
	var out []string
	for _, dir := range FontDirs {
		root := expandHome(dir)
		if root == "" {
			continue
		}
		matches, err := globFonts(os.DirFS(root), "**/*")
		if err != nil {
			continue
		}
		for _, m := range matches {
			out = append(out, filepath.Join(root, filepath.FromSlash(m)))
		}
	}
	return out
}

func globFonts(fsys fs.FS, pattern string) ([]string, error) {
	matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	out := matches[:0]
	for _, m := range matches {
		if isFontFile(m) {
			out = append(out, m)
		}
	}
	return out, nil
}
