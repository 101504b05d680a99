package urlcodec

import "strings"

// FormValues iterates "key=value" pairs of a query string or
// application/x-www-form-urlencoded body, splitting on '&' and decoding the
// key and value independently, matching the form deserializer of §4.2.
type FormValues struct {
	rest string
}

// NewFormValues begins iterating the raw (still percent-encoded) form body.
func NewFormValues(raw string) *FormValues {
	return &FormValues{rest: raw}
}

// Next returns the next decoded (key, value) pair, or ok=false when
// exhausted. A pair with no '=' decodes to a value of "".
func (f *FormValues) Next() (key, value string, err error, ok bool) {
	if f.rest == "" {
		return "", "", nil, false
	}

	var pair string
	if idx := strings.IndexByte(f.rest, '&'); idx >= 0 {
		pair, f.rest = f.rest[:idx], f.rest[idx+1:]
	} else {
		pair, f.rest = f.rest, ""
	}

	rawKey, rawValue := pair, ""
	if idx := strings.IndexByte(pair, '='); idx >= 0 {
		rawKey, rawValue = pair[:idx], pair[idx+1:]
	}

	key, err = String(rawKey).DecodeToString()
	if err != nil {
		return "", "", err, true
	}
	value, err = String(rawValue).DecodeToString()
	if err != nil {
		return "", "", err, true
	}

	return key, value, nil, true
}

// Map decodes every pair into a map, matching the whole-body case of the
// form extractor.
func (f *FormValues) Map() (map[string]string, error) {
	out := map[string]string{}
	for {
		k, v, err, ok := f.Next()
		if !ok {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
}
