package generate

// Embedded default word lists for seeding batch prompts.
// Callers with curated lists on disk can replace them via WithWordLists.
var defaultAdjectives = []string{
	"abandoned", "ancient", "booming", "brittle", "clandestine", "crimson",
	"crooked", "dazzling", "derelict", "dusty", "electric", "endless",
	"feral", "forgotten", "fragile", "gilded", "haunted", "hollow",
	"iridescent", "jagged", "luminous", "makeshift", "molten", "nameless",
	"obsolete", "overgrown", "peculiar", "quiet", "relentless", "rusted",
	"sacred", "shattered", "sleepless", "submerged", "tangled", "threadbare",
	"unfinished", "velvet", "weightless", "wind-worn",
}

var defaultFeelings = []string{
	"anticipation", "awe", "bitterness", "contentment", "curiosity",
	"defiance", "despair", "dread", "envy", "euphoria", "grief", "guilt",
	"homesickness", "hope", "indignation", "jealousy", "loneliness",
	"longing", "melancholy", "nostalgia", "panic", "pride", "regret",
	"relief", "resentment", "restlessness", "reverence", "serenity",
	"shame", "spite", "tenderness", "terror", "triumph", "trust",
	"uncertainty", "vindication", "wanderlust", "wariness", "wonder",
	"yearning",
}
