// Package main provides the entry point of Onboard360, an admin console backend that
// keeps directory (LDAP / Active Directory) connection profiles, browses their
// organizational units and synchronizes directory user accounts into a SQL database.
// The JSON API is served with Fiber and persistence uses gorm.
package main
