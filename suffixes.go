package blazeindex

// suffixes lists English and Russian inflectional and derivational endings in
// reverse lexicographic order: compared from the last character backwards.
// Entries are unique and non-empty. Keep the order when adding entries.
var suffixes = []string{
	"ed", "ied", "ized", "ance", "ence", "able", "ible", "ise", "ive", "ize", "ing",
	"izing", "al", "ical", "ful", "ism", "ation", "er", "ator", "s", "es", "ies", "ities",
	"nesses", "izes", "ings", "isms", "ations", "ers", "ators", "less", "ness", "ments",
	"ists", "ous", "ment", "est", "ist", "ancy", "ency", "ly", "ably", "ibly", "ively",
	"ally", "fully", "lessly", "ously", "ity", "а", "ства", "ла", "ев", "ов", "е", "ее",
	"ие", "ение", "ое", "ете", "ые", "и", "ии", "ли", "ами", "ими", "ыми", "ями", "ости",
	"й", "ей", "ий", "ой", "ый", "ам", "ем", "ием", "ением", "им", "ом", "ством", "ым",
	"ям", "иям", "о", "ство", "его", "ого", "ло", "ат", "ет", "ит", "ост", "ут", "ют",
	"ят", "у", "ству", "ему", "ому", "ах", "их", "ых", "ях", "иях", "ениях", "ы", "ь",
	"сь", "ть", "ировать", "ость", "ешь", "ю", "ию", "ению", "ую", "юю", "я", "ая", "ия",
	"ения", "ся", "ться", "яя",
}
