package recorder

import (
	"bufio"
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	gherkin "github.com/cucumber/gherkin/go/v26"
	messages "github.com/cucumber/messages/go/v21"
	"golang.org/x/sync/singleflight"

	"hotelbooker/pkg/logging"
)

// UnknownFeature titles scenarios whose source cannot be located at all.
const UnknownFeature = "UnknownFeature"

const featureKeyword = "Feature:"

// godog appends ":<line>" to the URI of line-filtered scenarios.
var lineSuffix = regexp.MustCompile(`:\d+$`)

type featureEntry struct {
	title string
	doc   *messages.GherkinDocument
}

// FeatureIndex resolves feature titles and parsed Gherkin documents by
// source URI. Each URI is read and parsed once, however many scenarios
// ask for it concurrently.
type FeatureIndex struct {
	fsys  fs.FS
	group singleflight.Group

	mu      sync.RWMutex
	sources map[string][]byte
	entries map[string]*featureEntry
}

// NewFeatureIndex returns an index that reads sources from fsys, falling
// back to the local disk. fsys may be nil.
func NewFeatureIndex(fsys fs.FS) *FeatureIndex {
	return &FeatureIndex{
		fsys:    fsys,
		sources: make(map[string][]byte),
		entries: make(map[string]*featureEntry),
	}
}

// Register supplies the source of an in-memory feature.
func (x *FeatureIndex) Register(uri string, src []byte) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.sources[cleanURI(uri)] = src
	delete(x.entries, cleanURI(uri))
}

// Title returns the feature title for uri: the parsed Feature name, else
// the text of the first "Feature:" line, else the file name without its
// extension.
func (x *FeatureIndex) Title(uri string) string {
	return x.lookup(uri).title
}

// Document returns the parsed document for uri, or nil when the source
// could not be read or parsed.
func (x *FeatureIndex) Document(uri string) *messages.GherkinDocument {
	return x.lookup(uri).doc
}

func (x *FeatureIndex) lookup(uri string) *featureEntry {
	uri = cleanURI(uri)
	x.mu.RLock()
	e, ok := x.entries[uri]
	x.mu.RUnlock()
	if ok {
		return e
	}

	v, _, _ := x.group.Do(uri, func() (any, error) {
		e := x.load(uri)
		x.mu.Lock()
		x.entries[uri] = e
		x.mu.Unlock()
		return e, nil
	})
	return v.(*featureEntry)
}

func (x *FeatureIndex) load(uri string) *featureEntry {
	src, err := x.read(uri)
	if err != nil {
		logging.Debug("Recorder", "Feature source %s unavailable: %v", uri, err)
		return &featureEntry{title: fileTitle(uri)}
	}

	doc, err := gherkin.ParseGherkinDocument(bytes.NewReader(src), (&messages.Incrementing{}).NewId)
	if err != nil {
		logging.Warn("Recorder", "Failed to parse feature %s: %v", uri, err)
		doc = nil
	}
	if doc != nil && doc.Feature != nil {
		if name := strings.TrimSpace(doc.Feature.Name); name != "" {
			return &featureEntry{title: name, doc: doc}
		}
	}
	if title := scanFeatureLine(src); title != "" {
		return &featureEntry{title: title, doc: doc}
	}
	return &featureEntry{title: fileTitle(uri), doc: doc}
}

func (x *FeatureIndex) read(uri string) ([]byte, error) {
	x.mu.RLock()
	src, ok := x.sources[uri]
	x.mu.RUnlock()
	if ok {
		return src, nil
	}
	if uri == "" {
		return nil, errors.New("empty feature uri")
	}
	if x.fsys != nil {
		if b, err := fs.ReadFile(x.fsys, filepath.ToSlash(uri)); err == nil {
			return b, nil
		}
	}
	return os.ReadFile(uri)
}

func scanFeatureLine(src []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(src))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, featureKeyword) {
			return strings.TrimSpace(strings.TrimPrefix(line, featureKeyword))
		}
	}
	return ""
}

func fileTitle(uri string) string {
	base := path.Base(filepath.ToSlash(cleanURI(uri)))
	base = strings.TrimSuffix(base, ".feature")
	if base == "" || base == "." || base == "/" {
		return UnknownFeature
	}
	return base
}

func cleanURI(uri string) string {
	return lineSuffix.ReplaceAllString(uri, "")
}
