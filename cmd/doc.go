// Package cmd contains the rkv command line interface: the serve command
// running a node, and the client command group for driving a running node.
package cmd
