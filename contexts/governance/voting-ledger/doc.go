// Package votingledger records community votes on governance polls.
//
// A vote is accepted only for a verified wallet session, an active poll inside
// its voting window, an option of that poll, and once the per-poll cooldown
// has elapsed. Each accepted vote replaces the wallet's previous vote on the
// poll, moves the option tally and credits the wallet's streak reward in a
// single transaction.
package votingledger
