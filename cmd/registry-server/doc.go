/*
registry-server serves the account registry over HTTP.

Only --operator may read or write entries. Entries are kept in one or more
storage locations; reads return the first backend that answers, writes go to
every available backend.

	registry-server \
	    --operator 0x00000000000000000000000000000000000000aa \
	    --store file:///var/lib/registry \
	    --store redis://localhost:6379/0

Settings can also come from a TOML file given with --config. Flags set on
the command line override the file.
*/
package main
