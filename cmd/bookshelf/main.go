// Command bookshelf seeds and inspects the books collection.
package main

import "github.com/lizasixsixsix/m1001/internal/cli"

func main() {
	cli.Execute()
}
