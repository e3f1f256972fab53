// Package fixture checks annotated C sources against the index.
//
// A fixture carries line comments of the form
//
//	int val; // @def: val_member:val
//	out.inner.val = 5; // @jump: val_member:val
//	#define BUF 256 // @ref_target: BUF
//	char b[BUF]; // @ref_expect: BUF
//
// A @jump must resolve to the word on its @def line. A @ref_target must
// produce references on exactly the lines marked @ref_expect for the same
// tag, plus its own line and the symbol's definition line. The optional
// ":word" names the identifier to click; without it the tag itself, the tag
// ignoring case, then its underscore-separated suffixes are tried, falling
// back to the first non-keyword identifier on the line.
package fixture
