// Command arenalog reconstructs rated arena matches from World of
// Warcraft combat logs.
package main

func main() {
	Execute()
}
