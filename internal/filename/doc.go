// Package filename parses structured filenames and composes canonical ones.
//
// A structured filename has up to four parts joined by " - ", followed by
// the lowercased extension:
//
//	2024-03-07 - Acme - RCPT INVOICE - March Statement.pdf
//	└── date ──┘   └cat┘   └── tags ──┘   └──── name ───┘
//
// Every part is optional. [Parse] runs the ordered lexer [Rules] over the
// stem (date, then category, then tags), takes the remainder as the name,
// and applies the category/name fix-up. [Compose] is the single source of
// truth for canonical filenames; callers that change a part re-compose
// instead of patching strings.
package filename
