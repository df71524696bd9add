package trending

// stopWords are filtered out of keyword extraction. The list covers common
// English function words plus news-wire boilerplate.
var stopWords = map[string]bool{
	"a": true, "about": true, "after": true, "again": true, "against": true,
	"all": true, "also": true, "amid": true, "among": true, "an": true,
	"and": true, "any": true, "are": true, "as": true, "at": true,
	"be": true, "because": true, "been": true, "before": true, "being": true,
	"between": true, "both": true, "breaking": true, "but": true, "by": true,
	"can": true, "could": true, "did": true, "do": true, "does": true,
	"down": true, "during": true, "each": true, "few": true, "first": true,
	"for": true, "from": true, "further": true, "get": true, "gets": true,
	"had": true, "has": true, "have": true, "having": true, "he": true,
	"her": true, "here": true, "hers": true, "him": true, "his": true,
	"how": true, "if": true, "in": true, "into": true, "is": true,
	"it": true, "its": true, "itself": true, "just": true, "latest": true,
	"like": true, "live": true, "made": true, "make": true, "makes": true,
	"many": true, "may": true, "might": true, "more": true, "most": true,
	"much": true, "must": true, "new": true, "news": true, "no": true,
	"nor": true, "not": true, "now": true, "of": true, "off": true,
	"on": true, "once": true, "one": true, "only": true, "or": true,
	"other": true, "our": true, "out": true, "over": true, "own": true,
	"report": true, "reports": true, "said": true, "same": true, "say": true,
	"says": true, "she": true, "should": true, "so": true, "some": true,
	"still": true, "such": true, "than": true, "that": true, "the": true,
	"their": true, "theirs": true, "them": true, "then": true, "there": true,
	"these": true, "they": true, "this": true, "those": true, "through": true,
	"to": true, "too": true, "under": true, "until": true, "up": true,
	"update": true, "updates": true, "very": true, "was": true, "we": true,
	"were": true, "what": true, "when": true, "where": true, "which": true,
	"while": true, "who": true, "whom": true, "why": true, "will": true,
	"with": true, "would": true, "year": true, "years": true, "you": true,
	"your": true,
}
