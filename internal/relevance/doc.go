// Package relevance scores how related two pieces of text are.
//
// Text is cleaned (NFKC, punctuation stripped), segmented on UAX #29 word
// boundaries, and Han runs are expanded into bigrams so that Chinese text
// can be compared without a dictionary. On top of the token stream the
// package offers TF-IDF keyword extraction, term frequency ranking, cosine
// similarity and keyword coverage.
package relevance
