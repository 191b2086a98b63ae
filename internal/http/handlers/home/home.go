// Package home serves the API welcome document at the root path.
package home

import (
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/student-records-api/internal/utils/response"
)

// Version is the API version reported by the welcome document.
const Version = "1.0"

// Endpoints lists the student routes in the order they are documented.
type Endpoints struct {
	Students string `json:"students"`
	GetAll   string `json:"get_all"`
	GetOne   string `json:"get_one"`
	Create   string `json:"create"`
	Update   string `json:"update"`
	Delete   string `json:"delete"`
}

// Welcome is the body of GET /.
type Welcome struct {
	Message       string    `json:"message"`
	Version       string    `json:"version"`
	Endpoints     Endpoints `json:"endpoints"`
	Documentation string    `json:"documentation"`
}

var welcome = Welcome{
	Message: "Welcome to Student Management API",
	Version: Version,
	Endpoints: Endpoints{
		Students: "/students/",
		GetAll:   "GET /students/",
		GetOne:   "GET /students/{roll_no}/",
		Create:   "POST /students/",
		Update:   "PUT/PATCH /students/{roll_no}/",
		Delete:   "DELETE /students/{roll_no}/",
	},
	Documentation: "See README.md for full documentation",
}

// Index handles GET /
func Index(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("serving welcome document")
		response.WriteJSON(w, http.StatusOK, welcome)
	}
}
