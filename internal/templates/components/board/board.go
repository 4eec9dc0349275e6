package board

import (
	"context"
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"
)

// boardScript wires drag and drop to the moves endpoints and refreshes the
// board whenever a toast arrives.
const boardScript = `<script>
(function(){
  var board = document.getElementById("roster-board-root");
  var eventID = board.dataset.eventId;
  var base = "/api/v1/events/" + eventID;
  function post(path, body){
    return fetch(base + path, {method:"POST", headers:{"Content-Type":"application/json"}, body: JSON.stringify(body)});
  }
  board.addEventListener("dragstart", function(e){
    var card = e.target.closest("[data-player-id]");
    if (!card) return;
    post("/moves/begin", {playerId: card.dataset.playerId, source: card.dataset.group});
  });
  board.addEventListener("dragend", function(e){
    if (e.dataTransfer && e.dataTransfer.dropEffect === "none") {
      fetch(base + "/moves", {method:"DELETE"});
    }
  });
  board.addEventListener("dragover", function(e){
    if (e.target.closest("[data-group]")) e.preventDefault();
  });
  board.addEventListener("drop", function(e){
    var column = e.target.closest(".group[data-group]");
    if (!column) return;
    e.preventDefault();
    post("/moves/complete", {target: column.dataset.group});
  });
  var stream = new EventSource(base + "/toasts");
  stream.addEventListener("toast", function(e){
    var toast = JSON.parse(e.data);
    var el = document.createElement("div");
    el.className = "toast";
    el.textContent = toast.message;
    document.getElementById("toasts").appendChild(el);
    setTimeout(function(){ el.remove(); }, 4000);
    htmx.trigger(document.getElementById("roster-board"), "toast");
  });
})();
</script>`

// Page renders the event header, the board and the client script.
func Page(b Board, now time.Time) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, buildHeaderHTML(b, now)); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, `<div id="roster-board-root" data-event-id="%s">`, html.EscapeString(b.Event.ID)); err != nil {
			return err
		}
		if err := Fragment(b).Render(ctx, w); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `</div>`); err != nil {
			return err
		}
		if b.Cancelled() {
			return nil
		}
		_, err := io.WriteString(w, boardScript)
		return err
	})
}

// Fragment renders only the three columns; htmx swaps it on refresh.
func Fragment(b Board) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, buildBoardHTML(b))
		return err
	})
}

func buildHeaderHTML(b Board, now time.Time) string {
	status := kickoffIn(now, b.Event.StartsAt)
	if b.Cancelled() {
		status = "cancelled"
	}
	return fmt.Sprintf(
		`<header class="event-header">
			<h1>%s</h1>
			<p>%s &middot; %s &middot; hosted by %s</p>
			<p>%d of %d places confirmed</p>
		</header>`,
		html.EscapeString(b.Event.Title),
		html.EscapeString(b.KickoffLabel()),
		html.EscapeString(status),
		html.EscapeString(b.Event.HostName),
		b.Event.ConfirmedCount,
		b.Roster.MaxPlayers,
	)
}

func buildBoardHTML(b Board) string {
	var builder strings.Builder
	fmt.Fprintf(&builder,
		`<div id="roster-board" class="board" hx-get="/events/%s" hx-trigger="toast" hx-swap="outerHTML">`,
		html.EscapeString(b.Event.ID),
	)
	for _, col := range b.Columns() {
		fmt.Fprintf(&builder,
			`<section class="group" data-group="%s"><h2>%s <small>%s</small></h2>`,
			col.Group, html.EscapeString(col.Title), col.CountLabel(),
		)
		if len(col.Players) == 0 {
			builder.WriteString(`<p class="empty">Nobody yet</p>`)
		}
		for _, p := range col.Players {
			builder.WriteString(buildPlayerCardHTML(b, col, p.ID, p.Name, p.Avatar, p.IsAdmin))
		}
		builder.WriteString(`</section>`)
	}
	builder.WriteString(`</div>`)
	return builder.String()
}

func buildPlayerCardHTML(b Board, col Column, id, name, avatar string, admin bool) string {
	classes := []string{"player"}
	if admin {
		classes = append(classes, "admin")
	}
	if b.IsPending(id) {
		classes = append(classes, "pending")
	}

	badge := html.EscapeString(Initials(name))
	if avatar != "" {
		badge = fmt.Sprintf(`<img src="%s" alt="" width="20" height="20">`, html.EscapeString(avatar))
	}
	draggable := "true"
	if b.Cancelled() {
		draggable = "false"
	}

	return fmt.Sprintf(
		`<div class="%s" draggable="%s" data-player-id="%s" data-group="%s"><span class="badge">%s</span> %s</div>`,
		strings.Join(classes, " "),
		draggable,
		html.EscapeString(id),
		col.Group,
		badge,
		html.EscapeString(name),
	)
}
