package rerank

// styleKeywords is the curated vocabulary of TMDB keywords that describe how a film
// feels or is told rather than what it is about.
var styleKeywords = NewTokenSet(
	"anthology",
	"based on comic",
	"based on novel or book",
	"based on true story",
	"biography",
	"black and white",
	"body horror",
	"buddy comedy",
	"coming of age",
	"cult film",
	"cyberpunk",
	"dark comedy",
	"dark fantasy",
	"dystopia",
	"ensemble cast",
	"epic",
	"experimental",
	"fairy tale",
	"feel-good",
	"film noir",
	"found footage",
	"gothic",
	"hand-drawn animation",
	"heist",
	"independent film",
	"martial arts",
	"mockumentary",
	"musical",
	"neo-noir",
	"nonlinear timeline",
	"one location",
	"parody",
	"period drama",
	"political thriller",
	"post-apocalyptic future",
	"psychological thriller",
	"revenge",
	"road movie",
	"romantic comedy",
	"satire",
	"semi-autobiographical",
	"silent film",
	"slasher",
	"slow burn",
	"space opera",
	"spaghetti western",
	"steampunk",
	"stop motion",
	"supernatural horror",
	"surrealism",
	"survival",
	"time travel",
	"tragedy",
	"twist ending",
	"unreliable narrator",
	"whodunit",
	"woman director",
	"zombie apocalypse",
)

// IsStyleKeyword reports whether kw belongs to the style vocabulary
func IsStyleKeyword(kw string) bool {
	return styleKeywords.Has(kw)
}
