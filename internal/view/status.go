package view

import (
	"strconv"
	"time"

	g "maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	c "maragu.dev/gomponents/components"
	h "maragu.dev/gomponents/html"

	"github.com/nfrund/together/internal/together"
)

// TopicsPath serves the TopicsTable fragment polled by the status page.
const TopicsPath = "/status/topics"

const clockLayout = "15:04:05"

// StatusPage is the live overview of active watch-together topics.
func StatusPage(stats together.RegistryStats, at time.Time) g.Node {
	return c.HTML5(c.HTML5Props{
		Title:    "Together status",
		Language: "en",
		Head: []g.Node{
			h.Script(h.Src("https://unpkg.com/htmx.org@2.0.4")),
		},
		Body: []g.Node{
			h.Main(
				h.Class("container"),
				h.H1(g.Text("Watch-together sessions")),
				TopicsTable(stats, at),
			),
		},
	})
}

// TopicsTable lists every topic with members. It replaces itself every
// two seconds.
func TopicsTable(stats together.RegistryStats, at time.Time) g.Node {
	return h.Div(
		h.ID("topics"),
		hx.Get(TopicsPath),
		hx.Trigger("every 2s"),
		hx.Swap("outerHTML"),
		h.P(
			g.Textf("%d active topics, %d memberships", stats.Topics, stats.Memberships),
			h.Small(g.Text(" as of "+at.Format(clockLayout))),
		),
		g.If(len(stats.PerTopic) == 0, h.P(h.Class("empty"), g.Text("Nobody is watching right now."))),
		g.If(len(stats.PerTopic) > 0, h.Table(
			h.THead(h.Tr(h.Th(g.Text("Topic")), h.Th(g.Text("Members")))),
			h.TBody(g.Map(stats.PerTopic, func(tc together.TopicCount) g.Node {
				return h.Tr(
					h.Td(g.Text(tc.Topic.String())),
					h.Td(g.Text(strconv.Itoa(tc.Members))),
				)
			})),
		)),
	)
}
