package web

import (
	"baby-name-game/internal/form"
	"baby-name-game/internal/session"
)

type PaginationData struct {
	BasePath   string
	Page       int
	PerPage    int
	Total      int
	TotalPages int
	HasPrev    bool
	HasNext    bool
	PrevPage   int
	NextPage   int
}

type LandingData struct {
	Code  string
	Error string
	Flash string
}

const (
	AuthModeLogin  = "login"
	AuthModeSignup = "signup"
)

type AuthData struct {
	Mode          string
	Email         string
	Username      string
	FirstName     string
	LastName      string
	Error         string
	Flash         string
	GoogleEnabled bool
}

type GameRow struct {
	Title     string
	Code      string
	Status    string
	BabyName  string
	StartDate string
	EndDate   string
	Players   int
	Winners   int
	Guesses   int
}

type DashboardData struct {
	ParentName string
	Games      []GameRow
	Pagination PaginationData
	Flash      string
}

type CreateData struct {
	Form        *form.GameForm
	Errors      form.Errors
	SubmitError string
}

type SuccessData struct {
	Title       string
	Description string
	StartDate   string
	EndDate     string
	Code        string
	JoinURL     string
	QRPath      string
}

type PlayData struct {
	View  session.View
	Code  string
	Flash string
}
