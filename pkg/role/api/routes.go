package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// Response is a common response struct for all the API calls.
type Response struct {
	body        interface{}
	Code        int
	contentType string
}

func (resp *Response) Render(w http.ResponseWriter, r *http.Request) error {
	if resp.contentType != "" {
		w.Header().Set("Content-Type", resp.contentType)
	}
	render.Status(r, resp.Code)
	return nil
}

// Status sets the HTTP status code on the response.
func (resp *Response) Status(code int) *Response {
	resp.Code = code
	return resp
}

// ContentType sets the Content-Type header on the response.
func (resp *Response) ContentType(contentType string) *Response {
	resp.contentType = contentType
	return resp
}

func (resp *Response) MarshalJSON() ([]byte, error) {
	return json.Marshal(resp.body)
}

// Routes mounts the role management endpoints on the given router.
func Routes(r *chi.Mux, handle Handle) {
	r.Route("/api/roles", func(r chi.Router) {
		r.Get("/", wrap(handle.GetRoles))
		r.Post("/", wrap(handle.PostRoles))
		r.Get("/exists", wrap(handle.GetRolesExists))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", wrapID(handle.GetRolesID))
			r.Delete("/", wrapID(handle.DeleteRolesID))
			r.Get("/permissions", wrapID(handle.GetRolesIDPermissions))
			r.Put("/permissions", wrapID(handle.PutRolesIDPermissions))
			r.Get("/users", wrapID(handle.GetRolesIDUsers))
			r.Put("/users", wrapID(handle.PutRolesIDUsers))
			r.Get("/groups", wrapID(handle.GetRolesIDGroups))
			r.Put("/groups", wrapID(handle.PutRolesIDGroups))
		})
	})
}

func wrap(fn func(w http.ResponseWriter, r *http.Request) *Response) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if resp := fn(w, r); resp != nil {
			if err := render.Render(w, r, resp); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		}
	}
}

func wrapID(fn func(w http.ResponseWriter, r *http.Request, id string) *Response) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if resp := fn(w, r, chi.URLParam(r, "id")); resp != nil {
			if err := render.Render(w, r, resp); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		}
	}
}
