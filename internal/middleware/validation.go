package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xeipuuv/gojsonschema"
)

// requestSchemas maps "METHOD /path/pattern" to the JSON schema the request
// body must satisfy. Patterns use gin-style :param segments.
var requestSchemas = map[string]string{
	"POST /api/feedback": `{
		"type": "object",
		"required": ["callId", "citizenMobile", "citizenName", "satisfaction", "description"],
		"properties": {
			"callId":        {"type": "string", "minLength": 1, "maxLength": 100},
			"citizenMobile": {"type": "string", "pattern": "^[0-9]{10}$"},
			"citizenName":   {"type": "string", "minLength": 1, "maxLength": 255},
			"queryType":     {"type": "string", "maxLength": 255},
			"satisfaction":  {"type": "string", "enum": ["satisfied", "not-satisfied"]},
			"description":   {"type": "string", "minLength": 1},
			"submittedBy":   {"type": "string", "minLength": 1, "maxLength": 100},
			"submittedAt":   {"type": "string", "format": "date-time"},
			"status":        {"type": "string", "enum": ["pending", "resolved"]}
		},
		"additionalProperties": false
	}`,
	"PUT /api/feedback": `{
		"type": "object",
		"required": ["id", "status"],
		"properties": {
			"id":     {"type": "integer", "minimum": 1},
			"status": {"type": "string", "enum": ["pending", "resolved"]}
		},
		"additionalProperties": false
	}`,
	"POST /api/users": `{
		"type": "object",
		"required": ["username", "password", "type"],
		"properties": {
			"username": {"type": "string", "minLength": 3, "maxLength": 50, "pattern": "^[a-zA-Z0-9_]+$"},
			"password": {"type": "string", "minLength": 6},
			"type":     {"type": "string", "enum": ["admin", "executive", "manager", "operator"]},
			"active":   {"type": "boolean"}
		},
		"additionalProperties": false
	}`,
	"PUT /api/users/:id": `{
		"type": "object",
		"required": ["username", "type"],
		"properties": {
			"username": {"type": "string", "minLength": 3, "maxLength": 50, "pattern": "^[a-zA-Z0-9_]+$"},
			"password": {"type": "string"},
			"type":     {"type": "string", "enum": ["admin", "executive", "manager", "operator"]},
			"active":   {"type": "boolean"}
		},
		"additionalProperties": false
	}`,
}

// compiledSchemas holds the schemas compiled once at startup
var compiledSchemas = compileRequestSchemas()

func compileRequestSchemas() map[string]*gojsonschema.Schema {
	compiled := make(map[string]*gojsonschema.Schema, len(requestSchemas))
	for key, raw := range requestSchemas {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
		if err != nil {
			panic("invalid request schema for " + key + ": " + err.Error())
		}
		compiled[key] = schema
	}
	return compiled
}

// RequestValidationMiddleware validates JSON request bodies against the
// registered schema for the matched route, before the handler runs. Routes
// without a registered schema pass through untouched.
func RequestValidationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		schema, found := compiledSchemas[c.Request.Method+" "+c.FullPath()]
		if !found {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Failed to read request body",
				"code":  "INVALID_INPUT",
			})
			c.Abort()
			return
		}
		// Restore the body so the handler can bind it
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Request body must be valid JSON",
				"code":  "INVALID_INPUT",
			})
			c.Abort()
			return
		}

		if !result.Valid() {
			descriptions := make([]string, 0, len(result.Errors()))
			for _, resultErr := range result.Errors() {
				descriptions = append(descriptions, resultErr.String())
			}
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Request validation failed",
				"code":    "VALIDATION_FAILED",
				"details": strings.Join(descriptions, "; "),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
