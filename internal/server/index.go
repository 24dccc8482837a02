package server

import (
	"html/template"
	"net/http"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>alcviz</title>
<style>
body { margin: 0; display: flex; flex-wrap: wrap; background: #fff; font-family: sans-serif; }
figure { margin: 8px; }
figcaption { color: #666; font-size: 12px; }
#status { position: fixed; right: 8px; bottom: 8px; color: #c33; font-size: 12px; }
</style>
</head>
<body>
<figure><img id="topology" alt="topology"><figcaption id="topology-info"></figcaption></figure>
<figure><img id="stats" alt="stats"><figcaption id="stats-info"></figcaption></figure>
<div id="status"></div>
<script>
const token = new URLSearchParams(location.search).get("access_token");
const q = (extra) => {
  const p = new URLSearchParams(extra || {});
  if (token) p.set("access_token", token);
  const s = p.toString();
  return s ? "?" + s : "";
};
const show = (pane, id) => {
  document.getElementById(pane).src = "/v1/frames/" + pane + q({v: id});
  document.getElementById(pane + "-info").textContent = id;
};
const status = document.getElementById("status");
const es = new EventSource("/v1/events/stream" + q({topics: "{{.Topics}}"}));
for (const pane of ["topology", "stats"]) {
  es.addEventListener("alcviz.frame." + pane, (e) => show(pane, JSON.parse(e.data).id));
}
es.addEventListener("alcviz.tick.malformed", (e) => {
  const ev = JSON.parse(e.data);
  status.textContent = ev.pane + ": " + ev.error;
});
es.onopen = () => { status.textContent = ""; };
es.onerror = () => { status.textContent = "disconnected"; };
fetch("/v1/frames" + q()).then((r) => r.json()).then((body) => {
  for (const [pane, f] of Object.entries(body.frames || {})) show(pane, f.id);
});
</script>
</body>
</html>
`))

// handleIndex handles GET /: a page showing both panes, refreshed on SSE
// frame events.
func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, map[string]string{"Topics": "alcviz.>"}); err != nil {
		s.logger.Warn("rendering index page", "err", err)
	}
}
