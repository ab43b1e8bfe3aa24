package router

import (
	"github.com/ashureev/mailcore/internal/apperr"
	"github.com/ashureev/mailcore/internal/httpcodec"
	"github.com/ashureev/mailcore/internal/jsonlite"
)

// decodeObject tokenizes body and reads it as a top-level JSON object. An
// empty body decodes to an empty object rather than an error, so handlers
// with no required fields (e.g. star or archive) don't need a special case.
func decodeObject(body []byte) (map[string]jsonlite.Field, error) {
	if len(body) == 0 {
		return map[string]jsonlite.Field{}, nil
	}
	tokens, err := jsonlite.Tokenize(body)
	if err != nil {
		return nil, apperr.BadRequest("bad_json")
	}
	fields, err := jsonlite.Object(tokens, body)
	if err != nil {
		return nil, apperr.BadRequest("bad_json")
	}
	return fields, nil
}

func requiredString(fields map[string]jsonlite.Field, key string) (string, *apperr.Error) {
	f, ok := fields[key]
	if !ok {
		return "", apperr.BadRequest("bad_request")
	}
	v, err := f.String()
	if err != nil {
		return "", apperr.BadRequest("bad_request")
	}
	return v, nil
}

// jsonResponse frames the object built by fn as a JSON response body,
// with the CORS headers every JSON response carries.
func jsonResponse(status int, fn func(b *jsonlite.Builder)) *httpcodec.Response {
	b := jsonlite.NewBuilder()
	b.Object(fn)
	resp := httpcodec.NewResponse(status, b.Bytes())
	resp.Headers["Content-Type"] = "application/json"
	applyCORS(resp)
	return resp
}

func applyCORS(resp *httpcodec.Response) {
	resp.Headers["Access-Control-Allow-Origin"] = "*"
	resp.Headers["Access-Control-Allow-Headers"] = "Authorization, Content-Type"
	resp.Headers["Access-Control-Allow-Methods"] = "GET, POST, PUT, DELETE, OPTIONS"
}

// errorResponse frames an apperr.Error as {"error":{"code":..,"message":..}}.
func errorResponse(e *apperr.Error) *httpcodec.Response {
	resp := jsonResponse(e.Status, func(b *jsonlite.Builder) {
		b.Key("error")
		b.Object(func(o *jsonlite.Builder) {
			o.Key("code")
			o.String(e.Code)
			o.Key("message")
			o.String(e.Message)
		})
	})
	if e.Status == 401 {
		resp.Headers["WWW-Authenticate"] = `Bearer realm="mail"`
	}
	return resp
}
