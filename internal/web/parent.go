package web

import (
	"github.com/a-h/templ"
)

// ParentAuth renders the login or sign-up form.
func ParentAuth(data AuthData) templ.Component {
	signup := data.Mode == AuthModeSignup
	heading := "Parent Login"
	action := "/parent/login"
	if signup {
		heading = "Sign Up"
		action = "/parent/signup"
	}
	return layout(pageOptions{title: heading}, func(h *htmlWriter) {
		h.raw("      <section class=\"panel narrow\">\n        <h1>")
		h.text(heading)
		h.raw("</h1>\n")
		flash(h, data.Flash)
		errorBox(h, data.Error)
		h.raw(`        <form class="stack" method="post"`)
		h.attr("action", action)
		h.raw(">\n")
		if signup {
			input(h, "username", "Username", "text", data.Username, true)
			input(h, "first_name", "First name", "text", data.FirstName, false)
			input(h, "last_name", "Last name", "text", data.LastName, false)
		}
		input(h, "email", "Email", "email", data.Email, true)
		input(h, "password", "Password", "password", "", true)
		h.raw(`          <button type="submit" class="primary">`)
		h.text(heading)
		h.raw("</button>\n        </form>\n")
		if data.GoogleEnabled {
			h.raw(`        <a class="button secondary" href="/auth/google">Continue with Google</a>` + "\n")
		}
		if signup {
			h.raw(`        <p class="muted">Already have an account? <a href="/parent">Log in</a></p>` + "\n")
		} else {
			h.raw(`        <p class="muted">New here? <a href="/parent?mode=signup">Create an account</a></p>` + "\n")
		}
		h.raw("      </section>\n")
	})
}

func input(h *htmlWriter, name, label, kind, value string, required bool) {
	h.raw(`          <label>`)
	h.text(label)
	h.raw(`<input`)
	h.attr("name", name)
	h.attr("type", kind)
	if value != "" {
		h.attr("value", value)
	}
	if required {
		h.raw(" required")
	}
	h.raw("/></label>\n")
}

// Dashboard lists the signed-in parent's games.
func Dashboard(data DashboardData) templ.Component {
	return layout(pageOptions{title: "Your Games"}, func(h *htmlWriter) {
		h.raw("      <header class=\"bar\">\n        <h1>Your Games</h1>\n        <p>Signed in as ")
		h.text(data.ParentName)
		h.raw(`</p>
        <a class="button primary" href="/parent/create">Create New Game</a>
        <form method="post" action="/parent/logout"><button type="submit" class="link">Sign out</button></form>
      </header>
`)
		flash(h, data.Flash)
		if len(data.Games) == 0 {
			h.raw(`      <section class="panel center">
        <p>No games created yet.</p>
        <p class="muted">Create your first game to get started!</p>
      </section>
`)
			return
		}
		h.raw(`      <table class="games">
        <thead><tr><th>Game</th><th>Code</th><th>Baby</th><th>Dates</th><th>Status</th><th>Players</th><th>Winners</th><th>Guesses</th></tr></thead>
        <tbody>
`)
		for _, game := range data.Games {
			h.raw("          <tr><td>")
			h.text(game.Title)
			h.raw(`</td><td><a`)
			h.attr("href", "/game/"+game.Code)
			h.raw(">")
			h.text(game.Code)
			h.raw("</a></td><td>")
			h.text(game.BabyName)
			h.raw("</td><td>")
			h.text(game.StartDate + " – " + game.EndDate)
			h.raw(`</td><td><span`)
			h.attr("class", "status status-"+game.Status)
			h.raw(">")
			h.text(game.Status)
			h.raw("</span></td><td>", itoa(game.Players), "</td><td>", itoa(game.Winners), "</td><td>", itoa(game.Guesses), "</td></tr>\n")
		}
		h.raw("        </tbody>\n      </table>\n")
		pager(h, data.Pagination)
	})
}

func pager(h *htmlWriter, p PaginationData) {
	if p.TotalPages <= 1 {
		return
	}
	h.raw(`      <nav class="pager">`)
	if p.HasPrev {
		h.raw(`<a`)
		h.attr("href", pageURL(p.BasePath, p.PrevPage, p.PerPage))
		h.raw(">Previous</a>")
	}
	h.raw("<span>Page ", itoa(p.Page), " of ", itoa(p.TotalPages), "</span>")
	if p.HasNext {
		h.raw(`<a`)
		h.attr("href", pageURL(p.BasePath, p.NextPage, p.PerPage))
		h.raw(">Next</a>")
	}
	h.raw("</nav>\n")
}
