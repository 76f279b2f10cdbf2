package web

import (
	"net/http"

	"github.com/locallibrary/locallibrary-server/internal/service"
)

// Each form reads only the fields it names. Anything else posted is ignored.

func authorFormFrom(r *http.Request) service.AuthorForm {
	return service.AuthorForm{
		FirstName:   r.PostFormValue("first_name"),
		LastName:    r.PostFormValue("last_name"),
		DateOfBirth: r.PostFormValue("date_of_birth"),
		DateOfDeath: r.PostFormValue("date_of_death"),
	}
}

func bookFormFrom(r *http.Request) service.BookForm {
	title := r.PostFormValue("title") // parses the body before PostForm is read
	return service.BookForm{
		Title:    title,
		Summary:  r.PostFormValue("summary"),
		ISBN:     r.PostFormValue("isbn"),
		Author:   r.PostFormValue("author"),
		Language: r.PostFormValue("language"),
		Genres:   r.PostForm["genre"],
	}
}

func renewFormFrom(r *http.Request) service.RenewForm {
	return service.RenewForm{RenewalDate: r.PostFormValue("renewal_date")}
}

func loginFormFrom(r *http.Request) service.LoginForm {
	return service.LoginForm{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
}
