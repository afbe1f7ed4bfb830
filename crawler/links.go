package crawler

import (
	"bytes"
	"fmt"

	"golang.org/x/net/html"
)

// FindLinks parses document leniently and returns the href attribute of every
// <a> element in document order. Hrefs are returned verbatim: relative links stay
// relative and duplicates are kept.
func FindLinks(document []byte) ([]string, error) {
	root, err := html.Parse(bytes.NewReader(document))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	links := []string{}
	walk(root, &links)
	return links, nil
}

func walk(n *html.Node, links *[]string) {
	for node := n; node != nil; node = node.NextSibling {
		if node.Type == html.ElementNode && node.Data == "a" {
			for _, attr := range node.Attr {
				// Names are lowercased by the parser
				if attr.Namespace == "" && attr.Key == "href" {
					*links = append(*links, attr.Val)
				}
			}
		}
		if node.FirstChild != nil {
			walk(node.FirstChild, links)
		}
	}
}
