// Package keygen inspects the SSH private key used to reach the master.
//
// The key must be the private half of the EC2 key pair named on the
// command line. It is parsed locally so connection instructions can name a
// file that ssh will accept.
package keygen
