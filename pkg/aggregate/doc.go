// Package aggregate derives summary statistics from reconciled local
// authority flows: gross in and out flows per area, origin/destination
// flows re-keyed to higher geographies through lookup tables, and the
// in/out/net and age-pivoted tables used for children's flows.
package aggregate
