package web

import (
	"baby-name-game/internal/form"

	"github.com/a-h/templ"
)

func CreateGame(data CreateData) templ.Component {
	f := data.Form
	return layout(pageOptions{title: "Create New Game", scripts: []string{"/static/create.js"}}, func(h *htmlWriter) {
		h.raw(`      <header class="hero">
        <h1>Create New Game</h1>
        <p>Set up a new baby name guessing game for friends and family</p>
      </header>
`)
		errorBox(h, data.SubmitError)
		h.raw(`      <form id="createForm" class="stack panel" method="post" action="/parent/create" novalidate>
`)
		for _, field := range f.TouchedFields() {
			h.raw(`        <input type="hidden" name="touched"`)
			h.attr("value", field)
			h.raw("/>\n")
		}
		h.raw("        <h2>Baby Information</h2>\n")
		field(h, data.Errors, form.FieldBabyFirstName, "First name", "text", f.BabyFirstName, form.MaxNameRunes)
		field(h, data.Errors, form.FieldBabyMiddleName, "Middle name", "text", f.BabyMiddleName, form.MaxNameRunes)
		field(h, data.Errors, form.FieldBabyLastName, "Last name", "text", f.BabyLastName, form.MaxNameRunes)
		h.raw("        <h2>Game Settings</h2>\n")
		field(h, data.Errors, form.FieldGameTitle, "Game title", "text", f.GameTitle, form.MaxTitleRunes)
		field(h, data.Errors, form.FieldGameDescription, "Description", "textarea", f.GameDescription, form.MaxDescriptionRunes)
		field(h, data.Errors, form.FieldStartDate, "Start date", "date", f.StartDate, 0)
		field(h, data.Errors, form.FieldEndDate, "End date", "date", f.EndDate, 0)

		h.raw("        <h2>Clues <span class=\"muted\">(", itoa(len(f.Clues)), "/", itoa(form.MaxClues), ")</span></h2>\n")
		fieldError(h, data.Errors.Fields[form.FieldClues], form.FieldClues)
		h.raw("        <ol class=\"clues\">\n")
		for i, clue := range f.Clues {
			h.raw(`          <li><input name="clues" type="text"`)
			h.attr("value", clue)
			h.attr("maxlength", itoa(form.MaxClueRunes))
			h.attr("placeholder", "Clue "+itoa(i+1))
			h.raw("/>")
			if f.CanRemoveClue() {
				h.raw(`<button type="submit" class="link" name="remove_clue" formnovalidate`)
				h.attr("value", itoa(i))
				h.raw(">Remove</button>")
			}
			if i < len(data.Errors.Clues) {
				fieldError(h, data.Errors.Clues[i], "")
			}
			h.raw("</li>\n")
		}
		h.raw("        </ol>\n")
		if f.CanAddClue() {
			h.raw(`        <button type="submit" class="secondary" name="action" value="add_clue" formnovalidate>Add clue</button>` + "\n")
		}
		h.raw(`        <button type="submit" class="primary" name="action" value="create">Create game</button>
      </form>
`)
	})
}

func field(h *htmlWriter, errs form.Errors, name, label, kind, value string, maxRunes int) {
	h.raw(`        <label>`)
	h.text(label)
	if kind == "textarea" {
		h.raw(`<textarea`)
		h.attr("name", name)
		if maxRunes > 0 {
			h.attr("maxlength", itoa(maxRunes))
		}
		h.raw(">")
		h.text(value)
		h.raw("</textarea>")
	} else {
		h.raw(`<input`)
		h.attr("name", name)
		h.attr("type", kind)
		h.attr("value", value)
		if maxRunes > 0 {
			h.attr("maxlength", itoa(maxRunes))
		}
		h.raw("/>")
	}
	h.raw("</label>\n")
	fieldError(h, errs.Fields[name], name)
}

func fieldError(h *htmlWriter, message, name string) {
	if message == "" && name == "" {
		return
	}
	h.raw(`        <p class="field-error"`)
	if name != "" {
		h.attr("data-error-for", name)
	}
	h.raw(">")
	h.text(message)
	h.raw("</p>\n")
}

// GameCreated shows the join link and QR code for a newly created game.
func GameCreated(data SuccessData) templ.Component {
	return layout(pageOptions{title: "Game Created"}, func(h *htmlWriter) {
		h.raw(`      <section class="panel center">
        <span class="tag">🎉</span>
        <h1>Game Created Successfully!</h1>
        <p>Your baby name guessing game is ready to play</p>
        <h2>`)
		h.text(data.Title)
		h.raw("</h2>\n        <p>")
		h.text(data.StartDate + " – " + data.EndDate)
		h.raw("</p>\n")
		if data.Description != "" {
			h.raw(`        <p class="muted">`)
			h.text(data.Description)
			h.raw("</p>\n")
		}
		h.raw(`        <p class="code">`)
		h.text(data.Code)
		h.raw(`</p>
        <h3>Game Link</h3>
        <p><a`)
		h.attr("href", data.JoinURL)
		h.raw(">")
		h.text(data.JoinURL)
		h.raw(`</a></p>
        <figure>
          <img alt="QR code"`)
		h.attr("src", data.QRPath)
		h.raw(` width="256" height="256"/>
          <figcaption>Scan to join game</figcaption>
        </figure>
        <a class="button secondary" href="/parent">Back to your games</a>
      </section>
`)
	})
}
