/*
registry-client reads and writes registry accounts.

	REGISTRY_KEY=<hex key> registry-client --server http://127.0.0.1:8080 set alice addr1
	REGISTRY_KEY=<hex key> registry-client get alice

Requests are signed with --key; the server only answers the operator.
*/
package main
