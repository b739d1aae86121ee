package blazeindex

import (
	"slices"
	"unicode/utf8"
)

// stopWords lists English and Russian function words, sorted by code point so
// the normalizer can binary search it without allocating. Russian entries are
// spelled with е in place of ё, matching what the normalizer produces.
var stopWords = []string{
	"a", "about", "above", "after", "again", "against", "ain", "all", "am", "an", "and",
	"any", "are", "aren", "as", "at", "be", "because", "been", "before", "being", "below",
	"between", "both", "but", "by", "can", "couldn", "d", "did", "didn", "do", "does",
	"doesn", "doing", "don", "down", "during", "each", "few", "for", "from", "further",
	"had", "hadn", "has", "hasn", "have", "haven", "having", "he", "her", "here", "hers",
	"herself", "him", "himself", "his", "how", "i", "if", "in", "into", "is", "isn", "it",
	"its", "itself", "just", "ll", "m", "ma", "me", "mightn", "more", "most", "mustn",
	"my", "myself", "needn", "no", "nor", "not", "now", "o", "of", "off", "on", "once",
	"only", "or", "other", "our", "ours", "ourselves", "out", "over", "own", "re", "s",
	"same", "shan", "she", "should", "shouldn", "so", "some", "such", "t", "than", "that",
	"the", "their", "theirs", "them", "themselves", "then", "there", "these", "they",
	"this", "those", "through", "to", "too", "under", "until", "up", "ve", "very", "was",
	"wasn", "we", "were", "weren", "what", "when", "where", "which", "while", "who",
	"whom", "why", "will", "with", "won", "wouldn", "y", "you", "your", "yours",
	"yourself", "yourselves", "а", "без", "более", "больше", "будет", "будто", "бы",
	"был", "была", "были", "было", "быть", "в", "вам", "вас", "вдруг", "ведь", "во",
	"вот", "впрочем", "все", "всегда", "всего", "всех", "всю", "вы", "где", "да", "даже",
	"два", "для", "до", "другой", "его", "ее", "ей", "ему", "если", "есть", "еще", "ж",
	"же", "за", "зачем", "здесь", "и", "из", "или", "им", "иногда", "их", "к", "как",
	"какая", "какой", "когда", "конечно", "кто", "куда", "ли", "лучше", "между", "меня",
	"мне", "много", "может", "можно", "мой", "моя", "мы", "на", "над", "надо", "наконец",
	"нас", "не", "него", "нее", "ней", "нельзя", "нет", "ни", "нибудь", "никогда", "ним",
	"них", "ничего", "но", "ну", "о", "об", "один", "он", "она", "они", "опять", "от",
	"перед", "по", "под", "после", "потом", "потому", "почти", "при", "про", "раз",
	"разве", "с", "сам", "свою", "себе", "себя", "сейчас", "со", "совсем", "так", "такой",
	"там", "тебя", "тем", "теперь", "то", "тогда", "того", "тоже", "только", "том", "тот",
	"три", "тут", "ты", "у", "уж", "уже", "хорошо", "хоть", "чего", "чем", "через", "что",
	"чтоб", "чтобы", "чуть", "эти", "этого", "этой", "этом", "этот", "эту", "я",
}

// isStopWord reports whether the lowercase token is a stop-word.
func isStopWord(token []rune) bool {
	_, found := slices.BinarySearchFunc(stopWords, token, compareRunes)
	return found
}

// compareRunes orders a string against a code point slice the same way string
// comparison orders two strings.
func compareRunes(s string, rs []rune) int {
	i := 0
	for len(s) > 0 {
		if i == len(rs) {
			return 1
		}
		r, size := utf8.DecodeRuneInString(s)
		switch {
		case r < rs[i]:
			return -1
		case r > rs[i]:
			return 1
		}
		s = s[size:]
		i++
	}
	if i < len(rs) {
		return -1
	}
	return 0
}
