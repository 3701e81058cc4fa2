package countries

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Load reads an alpha-2 -> country-name table from a CSV with at least
// the columns "alpha-2" and "country" (any column order). Loaded once per
// process; the pipeline only ever needs the resulting map.
func Load(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open country codes")
	}
	defer f.Close()
	return Read(f)
}

func Read(r io.Reader) (map[string]string, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "read country codes header")
	}

	codeIdx, nameIdx := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(col) {
		case "alpha-2":
			codeIdx = i
		case "country":
			nameIdx = i
		}
	}
	if codeIdx < 0 || nameIdx < 0 {
		return nil, errors.New("country codes file must have alpha-2 and country columns")
	}

	out := map[string]string{}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read country codes row")
		}
		code := strings.TrimSpace(rec[codeIdx])
		if code == "" {
			continue
		}
		out[code] = strings.TrimSpace(rec[nameIdx])
	}
	return out, nil
}
