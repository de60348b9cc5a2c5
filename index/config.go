package index

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// configuration is the in-memory form of index.inf, a line-oriented
// key/value file (spec.md §6). No ini/properties/viper-style library in
// the retrieved pack targets this exact frozen "key: value" line
// format, so it is hand-rolled over bufio.Scanner.
type configuration map[string]string

// Well-known keys, one per scalar or name named in spec.md §3.
const (
	keyVersionMajor      = "version.major"
	keyVersionMinor      = "version.minor"
	keyVersionPatch      = "version.patch"
	keyLanguageID        = "language.id"
	keyTokenizerName     = "tokenizer.name"
	keyStemmerName       = "stemmer.name"
	keyStopListName      = "stoplist.name"
	keyStopListType      = "stoplist.type"
	keyTermLengthMinimum = "term.length.minimum"
	keyTermLengthMaximum = "term.length.maximum"
	keyFieldIDMaximum    = "field.id.maximum"

	keyUniqueTermCount     = "scalar.unique_term_count"
	keyTotalTermCount      = "scalar.total_term_count"
	keyUniqueStopTermCount = "scalar.unique_stop_term_count"
	keyTotalStopTermCount  = "scalar.total_stop_term_count"
	keyDocumentCount       = "scalar.document_count"
	keyMinDocTermCount     = "scalar.min_document_term_count"
	keyMaxDocTermCount     = "scalar.max_document_term_count"
	keyLastUpdate          = "scalar.last_update"
)

func loadConfiguration(path string) (configuration, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "configuration: open")
	}
	defer f.Close()

	cfg := configuration{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		cfg[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "configuration: scan")
	}
	return cfg, nil
}

func saveConfiguration(path string, cfg configuration) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "configuration: create")
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for key, value := range cfg {
		if _, err := fmt.Fprintf(w, "%s: %s\n", key, value); err != nil {
			return errors.Wrap(err, "configuration: write")
		}
	}
	return w.Flush()
}

func (cfg configuration) getString(key, def string) string {
	if v, ok := cfg[key]; ok {
		return v
	}
	return def
}

func (cfg configuration) getUint32(key string, def uint32) (uint32, error) {
	v, ok := cfg[key]
	if !ok {
		return def, nil
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "configuration: key %q", key)
	}
	return uint32(n), nil
}

func (cfg configuration) getUint64(key string, def uint64) (uint64, error) {
	v, ok := cfg[key]
	if !ok {
		return def, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "configuration: key %q", key)
	}
	return n, nil
}

func (cfg configuration) setUint32(key string, v uint32) {
	cfg[key] = strconv.FormatUint(uint64(v), 10)
}

func (cfg configuration) setUint64(key string, v uint64) {
	cfg[key] = strconv.FormatUint(v, 10)
}

func (cfg configuration) setTime(key string, t time.Time) {
	cfg[key] = strconv.FormatInt(t.Unix(), 10)
}

func (cfg configuration) getTime(key string) (time.Time, error) {
	v, ok := cfg[key]
	if !ok || v == "" {
		return time.Time{}, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "configuration: key %q", key)
	}
	return time.Unix(n, 0).UTC(), nil
}
