package handler

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
)

const maxFormBytes = 1 << 20 // 1 MB

// formBag はフォームまたは JSON で届いた型なしのキー・値の組
type formBag map[string]string

// Get は最初に見つかったキーの値を返す。なければ空文字
func (b formBag) Get(keys ...string) string {
	for _, k := range keys {
		if v, ok := b[k]; ok {
			return v
		}
	}
	return ""
}

// readForm は Content-Type に応じて JSON オブジェクトか urlencoded フォームを読む。
// JSON の文字列以外の値は文字列化し、null は空として扱う
func readForm(w http.ResponseWriter, r *http.Request) (formBag, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	bag := formBag{}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var raw map[string]any
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode json body: %w", err)
		}
		for k, v := range raw {
			switch tv := v.(type) {
			case nil:
			case string:
				bag[k] = tv
			default:
				bag[k] = fmt.Sprint(tv)
			}
		}
		return bag, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("parse form: %w", err)
	}
	for k, vs := range r.PostForm {
		if len(vs) > 0 {
			bag[k] = vs[0]
		}
	}
	return bag, nil
}
