// Package markup parses the XML and HTML fragments returned by the PDU's
// embedded web server into a single tree shape, and provides the two lookup
// primitives the configuration codecs are built from.
//
// The device firmware is not consistent about content types: status.xml is
// well-formed XML while the *.htm configuration pages are malformed HTML
// (unclosed tags, no DOCTYPE), both served from paths whose Content-Type
// header cannot be trusted. Parse therefore sniffs the body itself: if the
// raw text contains "html" (case-insensitive) it is parsed leniently with
// golang.org/x/net/html, otherwise strictly with encoding/xml.
package markup
