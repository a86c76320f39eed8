package web

import "github.com/a-h/templ"

func Landing(data LandingData) templ.Component {
	return layout(pageOptions{}, func(h *htmlWriter) {
		h.raw(`      <header class="hero">
        <span class="tag">👶 Baby Name Guessing Game</span>
        <h1>Guess the name. Win bragging rights.</h1>
        <p>Create or join a fun baby name guessing challenge.</p>
      </header>
`)
		flash(h, data.Flash)
		h.raw(`      <section class="panel">
        <div>
          <h2>Join Existing Game</h2>
          <p>Have a game code? Enter it here to join the fun!</p>
        </div>
`)
		errorBox(h, data.Error)
		h.raw(`        <form class="join-form" method="get" action="/join">
          <input name="code" placeholder="Game code" autocomplete="off" maxlength="10" required`)
		h.attr("value", data.Code)
		h.raw(`/>
          <button type="submit" class="primary">Join game</button>
        </form>
      </section>

      <section class="panel">
        <div>
          <h2>Create New Game</h2>
          <p>Set up a new baby name guessing game for your friends and family!</p>
        </div>
        <a class="button secondary" href="/parent">Parent Login</a>
      </section>
`)
	})
}
