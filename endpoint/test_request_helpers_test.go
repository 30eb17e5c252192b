package endpoint

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gin-gonic/gin"
)

type requestSpec struct {
	method       string
	registerPath string
	requestPath  string
	handler      gin.HandlerFunc
	body         interface{}
	headers      map[string]string
}

// requestBody encodes spec.body. Strings are sent verbatim so tests can post malformed JSON.
func requestBody(body interface{}) (io.Reader, bool, error) {
	switch v := body.(type) {
	case nil:
		return http.NoBody, false, nil
	case string:
		return strings.NewReader(v), true, nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, false, err
		}
		return bytes.NewReader(b), true, nil
	}
}

// performRequest serves spec against r and decodes the JSON envelope.
func performRequest(r *gin.Engine, spec requestSpec) (*httptest.ResponseRecorder, map[string]interface{}, error) {
	body, isJSON, err := requestBody(spec.body)
	if err != nil {
		return nil, nil, err
	}

	req := httptest.NewRequest(spec.method, spec.requestPath, body)
	if isJSON {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range spec.headers {
		req.Header.Set(key, value)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var response map[string]interface{}
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			return w, nil, err
		}
	}
	return w, response, nil
}

// doRequestWithHandler registers spec.handler on r before serving the request.
func doRequestWithHandler(r *gin.Engine, spec requestSpec) (*httptest.ResponseRecorder, map[string]interface{}, error) {
	r.Handle(spec.method, spec.registerPath, spec.handler)
	return performRequest(r, spec)
}
