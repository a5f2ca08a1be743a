package test

import (
	"bytes"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
)

// FileUpload builds a multipart request body with a single form file.
//
// The body is returned as a buffer and a map for the HTTP request headers
func FileUpload(t *testing.T, fileName string, content []byte) (*bytes.Buffer, map[string]string) {
	body := new(bytes.Buffer)

	mw := multipart.NewWriter(body)

	w, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		assert.Fail(t, err.Error())
	}

	if _, err := w.Write(content); err != nil {
		assert.Fail(t, err.Error())
	}

	mw.Close()

	return body, map[string]string{"Content-Type": mw.FormDataContentType()}
}
