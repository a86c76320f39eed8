package web

import (
	"baby-name-game/internal/session"

	"github.com/a-h/templ"
)

// Play renders the player screen for whatever state the session is in.
func Play(data PlayData) templ.Component {
	view := data.View
	attrs := map[string]string{
		"data-state": string(view.State),
		"data-code":  data.Code,
	}
	if view.State == session.StatePlaying || view.State == session.StateWon {
		attrs["data-player-id"] = view.PlayerID.String()
	}
	if view.State == session.StateWon && !view.SummaryOpen {
		attrs["data-summary-pending"] = "true"
	}
	return layout(pageOptions{title: view.Title, attrs: attrs, scripts: []string{"/static/play.js"}}, func(h *htmlWriter) {
		switch view.State {
		case session.StateLoading:
			h.raw("      <section class=\"panel center\"><p>Loading game...</p></section>\n")
		case session.StateError:
			playError(h, view.Error)
		case session.StateAwaitingName:
			playJoin(h, data)
		default:
			playGame(h, data)
		}
	})
}

func playError(h *htmlWriter, message string) {
	h.raw(`      <section class="panel center">
        <span class="tag">😞</span>
        <h1>Oops!</h1>
        <p>`)
	h.text(message)
	h.raw(`</p>
        <a class="button secondary" href="/">Back to home</a>
      </section>
`)
}

func playJoin(h *htmlWriter, data PlayData) {
	view := data.View
	h.raw("      <section class=\"panel narrow\">\n        <h1>")
	h.text(view.Title)
	h.raw("</h1>\n")
	if view.Description != "" {
		h.raw(`        <p class="muted">`)
		h.text(view.Description)
		h.raw("</p>\n")
	}
	h.raw("        <h2>Enter Your Name</h2>\n")
	errorBox(h, data.Flash)
	h.raw(`        <form class="join-form" method="post"`)
	h.attr("action", "/game/"+data.Code+"/join")
	h.raw(`>
          <input name="name" placeholder="Your name" autocomplete="name" maxlength="64" required/>
          <button type="submit" class="primary">Start playing</button>
        </form>
      </section>
`)
}

func playGame(h *htmlWriter, data PlayData) {
	view := data.View
	base := "/game/" + data.Code
	h.raw("      <header class=\"bar\">\n        <div><h1>")
	h.text(view.Title)
	h.raw("</h1><p>Player: ")
	h.text(view.PlayerName)
	h.raw(`</p></div>
        <span class="timer">⏰ <span id="elapsed">`)
	h.text(view.Elapsed)
	h.raw("</span></span>\n      </header>\n")

	h.raw("      <section class=\"panel\">\n        <h2>💡 Clues <span class=\"muted\">(")
	h.raw(itoa(view.CluesRevealed), "/", itoa(view.TotalClues), ")</span></h2>\n        <ol class=\"clues\">\n")
	for _, clue := range view.Clues {
		h.raw("          <li>")
		h.text(clue.Text)
		h.raw("</li>\n")
	}
	h.raw("        </ol>\n")
	if view.State == session.StatePlaying {
		h.raw(`        <form method="post"`)
		h.attr("action", base+"/reveal")
		h.raw(`><button type="submit" class="secondary"`)
		if !view.CanRevealClue {
			h.raw(" disabled")
		}
		h.raw(">Reveal clue</button></form>\n")
	}
	h.raw("      </section>\n")

	if view.Feedback.Message != "" {
		h.raw(`      <p`)
		h.attr("class", "feedback feedback-"+view.Feedback.Kind)
		h.raw(">")
		h.text(view.Feedback.Message)
		h.raw("</p>\n")
	}

	if view.State == session.StatePlaying {
		h.raw(`      <section class="panel">
        <form class="join-form" method="post"`)
		h.attr("action", base+"/guess")
		h.raw(`>
          <input name="guess" placeholder="Enter your guess" autocomplete="off" maxlength="128" required autofocus/>
          <button type="submit" class="primary">Guess</button>
        </form>
      </section>
`)
	}

	h.raw(`      <section class="panel">
        <p>❌ Incorrect Guesses: `, itoa(view.IncorrectGuesses), "</p>\n")
	guessList(h, view.PreviousGuesses)
	h.raw("      </section>\n")

	if view.SummaryOpen && view.Summary != nil {
		summary(h, *view.Summary)
	}
}

func guessList(h *htmlWriter, guesses []string) {
	if len(guesses) == 0 {
		return
	}
	h.raw("        <ul class=\"guesses\">\n")
	for _, guess := range guesses {
		h.raw("          <li>")
		h.text(guess)
		h.raw("</li>\n")
	}
	h.raw("        </ul>\n")
}

func summary(h *htmlWriter, s session.Summary) {
	h.raw(`      <div class="modal" role="dialog" aria-modal="true">
        <div class="modal-body">
          <span class="tag">🎉</span>
          <h2>Congratulations!</h2>
          <dl>
            <dt>Time</dt><dd>`)
	h.text(s.FinalTime)
	h.raw("</dd>\n            <dt>Clues used</dt><dd>", itoa(s.CluesUsed), "/", itoa(s.TotalClues), "</dd>\n")
	h.raw("            <dt>Incorrect guesses</dt><dd>", itoa(s.IncorrectGuesses), "</dd>\n          </dl>\n")
	guessList(h, s.RecentGuesses)
	h.raw(`          <a class="button secondary" href="/">Back to home</a>
        </div>
      </div>
`)
}
