// Command tubbitctl bundles the maintenance tasks for a Tubbit deployment.
package main

func main() {
	Execute()
}
