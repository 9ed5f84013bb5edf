package pagination

import (
	"fmt"
	"net/http"
	"strconv"
)

// DefaultNumber is the page size used when the request does not give one.
const DefaultNumber = 50

// Params holds window parameters extracted from a query string.
type Params struct {
	Number int `json:"number"`
	Offset int `json:"offset"`
}

// FromRequest reads the "number" and "offset" query parameters. Missing
// values take their defaults; non-integer or negative values are an error.
func FromRequest(r *http.Request, defaultNumber int) (Params, error) {
	q := r.URL.Query()
	p := Params{Number: defaultNumber}

	var err error
	if p.Number, err = intParam(q.Get("number"), "number", defaultNumber); err != nil {
		return Params{}, err
	}
	if p.Offset, err = intParam(q.Get("offset"), "offset", 0); err != nil {
		return Params{}, err
	}
	return p, nil
}

func intParam(raw, name string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", name, raw)
	}
	return v, nil
}

// Window returns the [start, end) bounds of p applied to a collection of
// size n. Number is compared against the remaining length, so values up
// to math.MaxInt cannot overflow.
func (p Params) Window(n int) (start, end int) {
	start = min(p.Offset, n)
	end = start + min(p.Number, n-start)
	return start, end
}
