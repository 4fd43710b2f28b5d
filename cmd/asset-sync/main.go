// Command asset-sync keeps vendored third-party release assets current.
package main

import "github.com/oshokin/asset-sync/cmd/asset-sync/cmd"

func main() {
	cmd.Execute()
}
