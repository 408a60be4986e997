// Package s3 manages the checkpoint bucket a deployment creates.
//
// CloudFormation refuses to delete a bucket that still holds objects, so the
// bucket is emptied before its stack is deleted.
package s3
