// Command calgrid computes calendar layouts from ICS feeds and YAML event
// files, once from the command line or continuously behind an HTTP API.
package main

func main() {
	Execute()
}
