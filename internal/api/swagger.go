package api

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger/v2"
)

const specPath = "/swagger/doc.json"

// SwaggerUIHandler serves the Swagger UI and the registered OpenAPI document under /swagger/.
func SwaggerUIHandler() http.HandlerFunc {
	return httpSwagger.Handler(
		httpSwagger.URL(specPath),
		httpSwagger.DocExpansion("list"),
	)
}

// OpenAPISpecHandler redirects to the OpenAPI document
func OpenAPISpecHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, specPath, http.StatusTemporaryRedirect)
	}
}
