package upload

import (
	"bytes"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// FileName returns the final path segment, or DefaultFileName when there is none.
func FileName(path string) string {
	base := filepath.Base(strings.TrimSpace(path))
	if base == "." || base == ".." || base == string(filepath.Separator) || base == "" {
		return DefaultFileName
	}
	return base
}

// ContentType infers the part content type from the extension, then the bytes.
func ContentType(fileName string, content []byte) string {
	if byExtension := mime.TypeByExtension(filepath.Ext(fileName)); byExtension != "" {
		return byExtension
	}
	return http.DetectContentType(content)
}

// encodeMultipart builds a form-data body with a single file part.
func encodeMultipart(fieldName, fileName string, content []byte) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(fieldName), quoteEscaper.Replace(fileName)))
	header.Set("Content-Type", ContentType(fileName, content))

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create multipart part: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, "", fmt.Errorf("write multipart part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}
