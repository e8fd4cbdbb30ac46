// Command grpart inspects and extracts Build engine GRP archives and
// ART tile catalogs, from local files or HTTP(S) URLs.
package main

func main() {
	Execute()
}
